package comments

import "writely_client/internal/model"

// findByID walks the forest depth-first and returns the node with the given
// ID, or nil. Reply depth is unbounded, so lookup is always by ID, never by
// position.
func findByID(forest []*model.Comment, id string) *model.Comment {
	for _, c := range forest {
		if c.ID == id {
			return c
		}
		if found := findByID(c.Replies, id); found != nil {
			return found
		}
	}
	return nil
}

// countNodes returns the number of comments in the forest, replies
// included.
func countNodes(forest []*model.Comment) int {
	n := 0
	for _, c := range forest {
		n += 1 + countNodes(c.Replies)
	}
	return n
}
