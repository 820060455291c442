package replystore

// Category groups requests so that one failing kind of request does not
// hide the state of another.
type Category string

const (
	Creating    Category = "creating"
	Fetching    Category = "fetching"
	Updating    Category = "updating"
	Deleting    Category = "deleting"
	Voting      Category = "voting"
	UserReplies Category = "userReplies"
)

// Categories lists every request category.
var Categories = []Category{Creating, Fetching, Updating, Deleting, Voting, UserReplies}

// State is the whole store. RepliesByPost and Cache share node pointers:
// Cache[id] is the node embedded in the forest whenever the reply is part
// of a loaded forest.
type State struct {
	RepliesByPost         map[uint][]*Node
	Cache                 map[uint]*Node
	UserReplies           []*Node
	UserRepliesPagination Pagination
	ExpandedReplies       map[uint]bool

	loading map[Category]bool
	errors  map[Category]string
	message string
}

func NewState() *State {
	return &State{
		RepliesByPost:         make(map[uint][]*Node),
		Cache:                 make(map[uint]*Node),
		UserRepliesPagination: defaultPagination(),
		ExpandedReplies:       make(map[uint]bool),
		loading:               make(map[Category]bool),
		errors:                make(map[Category]string),
	}
}

func (s *State) ensureMaps() {
	if s.RepliesByPost == nil {
		s.RepliesByPost = make(map[uint][]*Node)
	}
	if s.Cache == nil {
		s.Cache = make(map[uint]*Node)
	}
	if s.ExpandedReplies == nil {
		s.ExpandedReplies = make(map[uint]bool)
	}
	if s.loading == nil {
		s.loading = make(map[Category]bool)
	}
	if s.errors == nil {
		s.errors = make(map[Category]string)
	}
}

// Replies returns the loaded top-level replies of a post.
func (s *State) Replies(postID uint) []*Node {
	return s.RepliesByPost[postID]
}

// ReplyByID is an O(1) lookup through the flat cache.
func (s *State) ReplyByID(replyID uint) (*Node, bool) {
	n, ok := s.Cache[replyID]
	return n, ok
}

func (s *State) IsExpanded(replyID uint) bool {
	return s.ExpandedReplies[replyID]
}

func (s *State) Loading(c Category) bool {
	return s.loading[c]
}

// Error returns the last failure message of a category, "" when none.
func (s *State) Error(c Category) string {
	return s.errors[c]
}

// Message returns the last success message from the server.
func (s *State) Message() string {
	return s.message
}

// Clone deep-copies the state. Pointer sharing between the forest, Cache and
// UserReplies is preserved inside the copy.
func (s *State) Clone() *State {
	seen := make(map[*Node]*Node)
	var cloneNode func(n *Node) *Node
	cloneNode = func(n *Node) *Node {
		if n == nil {
			return nil
		}
		if c, ok := seen[n]; ok {
			return c
		}
		c := *n
		seen[n] = &c
		c.Upvotes = append([]uint(nil), n.Upvotes...)
		c.Downvotes = append([]uint(nil), n.Downvotes...)
		if n.Author != nil {
			a := *n.Author
			c.Author = &a
		}
		if n.Replies != nil {
			c.Replies = make([]*Node, len(n.Replies))
			for i, child := range n.Replies {
				c.Replies[i] = cloneNode(child)
			}
		}
		return &c
	}
	cloneList := func(list []*Node) []*Node {
		if list == nil {
			return nil
		}
		out := make([]*Node, len(list))
		for i, n := range list {
			out[i] = cloneNode(n)
		}
		return out
	}

	out := NewState()
	for postID, forest := range s.RepliesByPost {
		out.RepliesByPost[postID] = cloneList(forest)
	}
	for id, n := range s.Cache {
		out.Cache[id] = cloneNode(n)
	}
	out.UserReplies = cloneList(s.UserReplies)
	out.UserRepliesPagination = s.UserRepliesPagination
	for id, v := range s.ExpandedReplies {
		out.ExpandedReplies[id] = v
	}
	for c, v := range s.loading {
		out.loading[c] = v
	}
	for c, v := range s.errors {
		out.errors[c] = v
	}
	out.message = s.message
	return out
}
