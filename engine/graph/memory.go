package graph

import (
	"context"
	"sort"
	"sync"

	"github.com/thewheel/research-engine/engine/domain"
)

// Node labels used by the memory store.
const (
	labelProject   = "Project"
	labelAuthor    = "Author"
	labelTopic     = "Topic"
	labelComponent = "Component"
)

// MemoryStore is an in-process Store for tests and offline runs. Nodes get
// auto-incrementing ids; merges are keyed the same way as the live backend
// (Project by url, Author by username, Topic and Component by name). The
// mutex covers each full operation so the store is safe when the HTTP
// front-end dispatches requests concurrently.
type MemoryStore struct {
	mu     sync.Mutex
	nodes  []domain.Node
	links  []domain.Link
	nextID int64
	byKey  map[string]int64
	linked map[linkKey]bool
}

type linkKey struct {
	source, target int64
	typ            string
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		byKey:  make(map[string]int64),
		linked: make(map[linkKey]bool),
	}
}

var _ Store = (*MemoryStore)(nil)

// merge inserts a node unless one with the same label+key exists, and
// returns its id. Must hold mu.
func (s *MemoryStore) merge(label, key, name, url string) int64 {
	idKey := label + "|" + key
	if id, ok := s.byKey[idKey]; ok {
		return id
	}
	id := s.nextID
	s.nextID++
	s.byKey[idKey] = id
	s.nodes = append(s.nodes, domain.Node{ID: id, Name: name, Type: label, URL: url})
	return id
}

// link appends an edge unless an identical one exists. Must hold mu.
func (s *MemoryStore) link(source, target int64, typ string) {
	k := linkKey{source, target, typ}
	if s.linked[k] {
		return
	}
	s.linked[k] = true
	s.links = append(s.links, domain.Link{Source: source, Target: target, Type: typ})
}

// SaveProject merges the project, its author, and its topics.
func (s *MemoryStore) SaveProject(_ context.Context, p domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pid := s.merge(labelProject, p.URL, p.Name, p.URL)
	if p.Author != "" {
		aid := s.merge(labelAuthor, p.Author, p.Author, "")
		s.link(aid, pid, domain.RelCreated)
	}
	for _, topic := range p.Topics {
		tid := s.merge(labelTopic, topic, topic, "")
		s.link(pid, tid, domain.RelTaggedWith)
	}
	return nil
}

// LinkComponents merges the project by url, then each component and its
// USES edge.
func (s *MemoryStore) LinkComponents(_ context.Context, projectURL string, comps []domain.Component) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pid := s.merge(labelProject, projectURL, projectURL, projectURL)
	for _, c := range comps {
		cid := s.merge(labelComponent, c.Name, c.Name, "")
		s.link(pid, cid, domain.RelUses)
	}
	return nil
}

// BlueOceans computes the scoring aggregation over the in-memory lists:
// for each topic tagging at least two projects,
// score = project_count / (distinct component_count + 1).
func (s *MemoryStore) BlueOceans(_ context.Context) ([]domain.Ocean, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tagged := make(map[int64][]int64) // topic id -> project ids
	uses := make(map[int64][]int64)   // project id -> component ids
	for _, l := range s.links {
		switch l.Type {
		case domain.RelTaggedWith:
			tagged[l.Target] = append(tagged[l.Target], l.Source)
		case domain.RelUses:
			uses[l.Source] = append(uses[l.Source], l.Target)
		}
	}

	nameOf := make(map[int64]string, len(s.nodes))
	for _, n := range s.nodes {
		nameOf[n.ID] = n.Name
	}

	var oceans []domain.Ocean
	for topicID, projects := range tagged {
		if len(projects) < 2 {
			continue
		}
		distinct := make(map[int64]bool)
		for _, pid := range projects {
			for _, cid := range uses[pid] {
				distinct[cid] = true
			}
		}
		oceans = append(oceans, domain.Ocean{
			Topic:          nameOf[topicID],
			ProjectCount:   len(projects),
			ComponentCount: len(distinct),
			Score:          float64(len(projects)) / float64(len(distinct)+1),
		})
	}

	sort.Slice(oceans, func(i, j int) bool {
		if oceans[i].Score != oceans[j].Score {
			return oceans[i].Score > oceans[j].Score
		}
		return oceans[i].Topic < oceans[j].Topic
	})
	if len(oceans) > 5 {
		oceans = oceans[:5]
	}
	return oceans, nil
}

// Landscape returns copies of the node and link lists.
func (s *MemoryStore) Landscape(_ context.Context) ([]domain.Node, []domain.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodes := make([]domain.Node, len(s.nodes))
	copy(nodes, s.nodes)
	links := make([]domain.Link, len(s.links))
	copy(links, s.links)
	return nodes, links, nil
}
