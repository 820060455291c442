package replystore

// findAndApply walks list depth-first and calls apply on every node matched
// by match, passing the slice that holds the node and its index so apply can
// restructure the parent. The walk stops when apply returns true; the return
// value reports whether it stopped. Every node is visited at most once.
func findAndApply(list *[]*Node, match func(*Node) bool, apply func(list *[]*Node, i int) (stop bool)) bool {
	for i := 0; i < len(*list); i++ {
		n := (*list)[i]
		if match(n) && apply(list, i) {
			return true
		}
		if len(n.Replies) > 0 && findAndApply(&n.Replies, match, apply) {
			return true
		}
	}
	return false
}

func byID(id uint) func(*Node) bool {
	return func(n *Node) bool { return n.ID == id }
}

func everyNode(*Node) bool { return true }

// register points the cache at n and at every node of its subtree.
func (s *State) register(n *Node) {
	list := []*Node{n}
	findAndApply(&list, everyNode, func(l *[]*Node, i int) bool {
		s.Cache[(*l)[i].ID] = (*l)[i]
		return false
	})
}

// unregister drops cache entries that point at n or its descendants. A
// profile copy of the same reply takes over the cache slot.
func (s *State) unregister(n *Node) {
	list := []*Node{n}
	findAndApply(&list, everyNode, func(l *[]*Node, i int) bool {
		node := (*l)[i]
		if s.Cache[node.ID] != node {
			return false
		}
		delete(s.Cache, node.ID)
		delete(s.ExpandedReplies, node.ID)
		for _, u := range s.UserReplies {
			if u.ID == node.ID {
				s.Cache[u.ID] = u
			}
		}
		return false
	})
}

// Insert prepends reply to the post's top level, or to the children of
// parentReplyID. A reply already present in the forest is refreshed in place
// instead of duplicated. When the parent is not loaded the tree is left alone
// but the reply is still cached.
func (s *State) Insert(postID uint, reply *Node, parentReplyID *uint) {
	if reply == nil {
		return
	}
	forest := s.RepliesByPost[postID]
	if forest == nil {
		forest = []*Node{}
	}

	existing := false
	findAndApply(&forest, byID(reply.ID), func(l *[]*Node, i int) bool {
		PatchFrom(reply).apply((*l)[i])
		reply = (*l)[i]
		existing = true
		return true
	})

	if !existing {
		if parentReplyID == nil {
			forest = append([]*Node{reply}, forest...)
		} else {
			findAndApply(&forest, byID(*parentReplyID), func(l *[]*Node, i int) bool {
				parent := (*l)[i]
				parent.Replies = append([]*Node{reply}, parent.Replies...)
				return true
			})
		}
	}

	s.RepliesByPost[postID] = forest
	s.Cache[reply.ID] = reply
}

// ApplyFieldUpdate applies patch to the reply wherever it appears: every
// post forest, the cache and the profile list.
func (s *State) ApplyFieldUpdate(replyID uint, patch ReplyPatch) {
	touched := make(map[*Node]bool)
	applyOnce := func(n *Node) {
		if !touched[n] {
			touched[n] = true
			patch.apply(n)
		}
	}

	for postID := range s.RepliesByPost {
		forest := s.RepliesByPost[postID]
		findAndApply(&forest, byID(replyID), func(l *[]*Node, i int) bool {
			applyOnce((*l)[i])
			return true
		})
	}
	if n, ok := s.Cache[replyID]; ok {
		applyOnce(n)
	}
	findAndApply(&s.UserReplies, byID(replyID), func(l *[]*Node, i int) bool {
		applyOnce((*l)[i])
		return false
	})
}

// Remove detaches the reply and its whole subtree from the post's forest and
// purges all of them from the cache. The reply also leaves the profile list.
func (s *State) Remove(replyID, postID uint) {
	if forest, ok := s.RepliesByPost[postID]; ok {
		findAndApply(&forest, byID(replyID), func(l *[]*Node, i int) bool {
			removed := (*l)[i]
			*l = append((*l)[:i:i], (*l)[i+1:]...)
			s.unregister(removed)
			return true
		})
		s.RepliesByPost[postID] = forest
	}

	delete(s.Cache, replyID)
	delete(s.ExpandedReplies, replyID)
	s.dropUserReply(replyID)
}

// dropUserReply takes the reply out of the profile list and its total, the
// way a refetch would no longer return it.
func (s *State) dropUserReply(replyID uint) {
	kept := s.UserReplies[:0:0]
	for _, n := range s.UserReplies {
		if n.ID != replyID {
			kept = append(kept, n)
		}
	}
	if len(kept) == len(s.UserReplies) {
		return
	}
	s.UserReplies = kept
	if s.UserRepliesPagination.TotalReplies > 0 {
		s.UserRepliesPagination.TotalReplies--
	}
}

// ApplyVoteResult updates the vote fields of a reply without touching the tree shape.
func (s *State) ApplyVoteResult(replyID uint, upvotes, downvotes []uint, voteScore int) {
	s.ApplyFieldUpdate(replyID, ReplyPatch{Votes: &Votes{
		Upvotes:   upvotes,
		Downvotes: downvotes,
		VoteScore: voteScore,
	}})
}

// MarkAccepted flags the reply as the accepted answer and clears the flag on
// every other reply of the same post.
func (s *State) MarkAccepted(replyID uint) {
	postID, found := s.postOf(replyID)
	if !found {
		return
	}

	setFlag := func(l *[]*Node, i int) bool {
		n := (*l)[i]
		n.IsAcceptedAnswer = n.ID == replyID
		return false
	}
	samePost := func(n *Node) bool { return n.PostID == postID }

	forest := s.RepliesByPost[postID]
	findAndApply(&forest, everyNode, setFlag)
	findAndApply(&s.UserReplies, samePost, setFlag)
	for _, n := range s.Cache {
		if n.PostID == postID {
			n.IsAcceptedAnswer = n.ID == replyID
		}
	}
}

// postOf finds the post a reply belongs to, from the cache or by searching
// every forest.
func (s *State) postOf(replyID uint) (uint, bool) {
	if n, ok := s.Cache[replyID]; ok {
		return n.PostID, true
	}
	for postID := range s.RepliesByPost {
		forest := s.RepliesByPost[postID]
		if findAndApply(&forest, byID(replyID), func(*[]*Node, int) bool { return true }) {
			return postID, true
		}
	}
	return 0, false
}

// SoftDeleteInStore marks the reply deleted and redacts its content in place.
// Children stay in the tree. Profile listings omit deleted replies, so it
// leaves UserReplies.
func (s *State) SoftDeleteInStore(replyID uint) {
	deleted := true
	content, html := DeletedPlaceholder, ""
	s.ApplyFieldUpdate(replyID, ReplyPatch{
		Content:     &content,
		ContentHTML: &html,
		IsDeleted:   &deleted,
	})
	s.dropUserReply(replyID)
}

func (s *State) ToggleExpanded(replyID uint) {
	s.ExpandedReplies[replyID] = !s.ExpandedReplies[replyID]
}

func (s *State) CollapseAll() {
	s.ExpandedReplies = make(map[uint]bool)
}

// SetPostReplies replaces the top-level replies of a post. Children already
// loaded under a reply that is still present are kept.
func (s *State) SetPostReplies(postID uint, replies []*Node) {
	previous := make(map[uint]*Node)
	for _, n := range s.RepliesByPost[postID] {
		previous[n.ID] = n
	}

	forest := make([]*Node, 0, len(replies))
	for _, n := range replies {
		if old, ok := previous[n.ID]; ok {
			if n.Replies == nil {
				n.Replies = old.Replies
			}
			delete(previous, n.ID)
		}
		forest = append(forest, n)
	}
	for _, stale := range previous {
		s.unregister(stale)
	}

	s.RepliesByPost[postID] = forest
	for _, n := range forest {
		s.register(n)
	}
}

// SetNestedReplies replaces the loaded children of parentReplyID. Nothing
// happens to the tree when the parent is not loaded; the replies are still cached.
func (s *State) SetNestedReplies(postID, parentReplyID uint, replies []*Node) {
	forest := s.RepliesByPost[postID]
	findAndApply(&forest, byID(parentReplyID), func(l *[]*Node, i int) bool {
		parent := (*l)[i]
		previous := make(map[uint]*Node, len(parent.Replies))
		for _, c := range parent.Replies {
			previous[c.ID] = c
		}
		for _, n := range replies {
			if old, ok := previous[n.ID]; ok {
				if n.Replies == nil {
					n.Replies = old.Replies
				}
				delete(previous, n.ID)
			}
		}
		for _, stale := range previous {
			s.unregister(stale)
		}
		parent.Replies = append([]*Node{}, replies...)
		return true
	})

	for _, n := range replies {
		s.register(n)
	}
}

// SetUserReplies stores a page of a user's replies. They are cached only when
// the reply is not already cached from a forest.
func (s *State) SetUserReplies(replies []*Node, pagination Pagination) {
	s.ClearUserReplies()
	s.UserReplies = append([]*Node{}, replies...)
	s.UserRepliesPagination = pagination
	for _, n := range s.UserReplies {
		if _, ok := s.Cache[n.ID]; !ok {
			s.Cache[n.ID] = n
		}
	}
}

// ClearPost forgets the forest of one post.
func (s *State) ClearPost(postID uint) {
	for _, n := range s.RepliesByPost[postID] {
		s.unregister(n)
	}
	delete(s.RepliesByPost, postID)
}

// ClearAll forgets every forest. Profile replies stay cached.
func (s *State) ClearAll() {
	s.RepliesByPost = make(map[uint][]*Node)
	s.Cache = make(map[uint]*Node)
	for _, n := range s.UserReplies {
		s.Cache[n.ID] = n
	}
}

func (s *State) ClearUserReplies() {
	for _, n := range s.UserReplies {
		if s.Cache[n.ID] == n {
			delete(s.Cache, n.ID)
		}
	}
	s.UserReplies = nil
	s.UserRepliesPagination = defaultPagination()
}

func (s *State) ClearErrors() {
	s.errors = make(map[Category]string)
	s.message = ""
}

func (s *State) requestStarted(c Category) {
	s.loading[c] = true
	delete(s.errors, c)
}

func (s *State) requestFailed(c Category, message string) {
	s.loading[c] = false
	s.errors[c] = message
}

func (s *State) requestSucceeded(c Category, message string) {
	s.loading[c] = false
	if message != "" {
		s.message = message
	}
}
