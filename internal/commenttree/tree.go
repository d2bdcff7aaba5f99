// Package commenttree assembles flat comment rows into nested reply trees.
package commenttree

import (
	"sort"

	"github.com/portfolio-api/internal/models"
)

// Build nests comments under their parents using an id -> children index.
//
// Deleted comments are redacted: a deleted comment with no visible descendant
// is dropped, otherwise it stays as a placeholder (no content, no author, no
// votes) so its replies keep their original parent. Comments whose parent is
// not in the set are unreachable and left out. Every level is ordered newest
// first.
func Build(comments []models.Comment, voteCounts map[string]int, userVotes map[string]int) []*models.CommentNode {
	children := make(map[string][]*models.Comment, len(comments))
	var roots []*models.Comment

	for i := range comments {
		c := &comments[i]
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], c)
	}

	b := &builder{
		children:   children,
		voteCounts: voteCounts,
		userVotes:  userVotes,
		visited:    make(map[string]bool, len(comments)),
	}

	nodes := make([]*models.CommentNode, 0, len(roots))
	for _, root := range roots {
		if node := b.assemble(root); node != nil {
			nodes = append(nodes, node)
		}
	}
	sortLevel(nodes, models.SortNewest)
	return nodes
}

type builder struct {
	children   map[string][]*models.Comment
	voteCounts map[string]int
	userVotes  map[string]int
	visited    map[string]bool
}

func (b *builder) assemble(c *models.Comment) *models.CommentNode {
	// parent links come from rows, guard against a malformed cycle
	if b.visited[c.ID] {
		return nil
	}
	b.visited[c.ID] = true

	replies := make([]*models.CommentNode, 0, len(b.children[c.ID]))
	for _, child := range b.children[c.ID] {
		if node := b.assemble(child); node != nil {
			replies = append(replies, node)
		}
	}
	sortLevel(replies, models.SortNewest)

	if c.IsDeleted {
		if len(replies) == 0 {
			return nil
		}
		return &models.CommentNode{Comment: redact(*c), Replies: replies}
	}

	return &models.CommentNode{
		Comment:   *c,
		VoteCount: b.voteCounts[c.ID],
		UserVote:  b.userVotes[c.ID],
		Replies:   replies,
	}
}

func redact(c models.Comment) models.Comment {
	return models.Comment{
		ID:        c.ID,
		BlogSlug:  c.BlogSlug,
		ParentID:  c.ParentID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		IsEdited:  c.IsEdited,
		IsDeleted: true,
	}
}

// VisibleIDs returns the ids of comments that are not soft-deleted
func VisibleIDs(comments []models.Comment) []string {
	ids := make([]string, 0, len(comments))
	for i := range comments {
		if !comments[i].IsDeleted {
			ids = append(ids, comments[i].ID)
		}
	}
	return ids
}

// Sort reorders nodes and all their replies in place
func Sort(nodes []*models.CommentNode, order string) {
	sortLevel(nodes, order)
	for _, n := range nodes {
		Sort(n.Replies, order)
	}
}

func sortLevel(nodes []*models.CommentNode, order string) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		switch order {
		case models.SortOldest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		case models.SortVotes:
			if a.VoteCount != b.VoteCount {
				return a.VoteCount > b.VoteCount
			}
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// Paginate returns the 1-indexed page of top-level nodes. Replies are never
// paginated.
func Paginate(nodes []*models.CommentNode, page, limit int) []*models.CommentNode {
	if page < 1 || limit < 1 {
		return []*models.CommentNode{}
	}
	// compare page counts before multiplying so huge pages cannot overflow
	pages := len(nodes) / limit
	if len(nodes)%limit != 0 {
		pages++
	}
	if page > pages {
		return []*models.CommentNode{}
	}
	offset := (page - 1) * limit
	end := len(nodes)
	if limit < end-offset {
		end = offset + limit
	}
	return nodes[offset:end]
}

// Find returns the node with the given id anywhere in the tree
func Find(nodes []*models.CommentNode, id string) *models.CommentNode {
	for _, n := range nodes {
		if n.ID == id {
			return n
		}
		if found := Find(n.Replies, id); found != nil {
			return found
		}
	}
	return nil
}

// Count returns the number of nodes in the tree, replies included
func Count(nodes []*models.CommentNode) int {
	total := len(nodes)
	for _, n := range nodes {
		total += Count(n.Replies)
	}
	return total
}

// Depth returns the number of levels in the tree
func Depth(nodes []*models.CommentNode) int {
	deepest := 0
	for _, n := range nodes {
		if d := Depth(n.Replies); d > deepest {
			deepest = d
		}
	}
	if len(nodes) == 0 {
		return 0
	}
	return deepest + 1
}
