package replystore

// Action is a state transition understood by Reduce.
type Action interface {
	isAction()
}

type (
	ReplyCreated struct {
		PostID        uint
		Reply         *Node
		ParentReplyID *uint
	}
	ReplyUpdated struct {
		ReplyID uint
		Patch   ReplyPatch
	}
	ReplyRemoved struct {
		ReplyID uint
		PostID  uint
	}
	VoteApplied struct {
		ReplyID   uint
		Upvotes   []uint
		Downvotes []uint
		VoteScore int
	}
	AnswerAccepted struct {
		ReplyID uint
	}
	ReplySoftDeleted struct {
		ReplyID uint
	}
	ExpandToggled struct {
		ReplyID uint
	}
	AllCollapsed struct{}

	PostRepliesLoaded struct {
		PostID  uint
		Replies []*Node
	}
	NestedRepliesLoaded struct {
		PostID        uint
		ParentReplyID uint
		Replies       []*Node
	}
	UserRepliesLoaded struct {
		Replies    []*Node
		Pagination Pagination
	}

	PostCleared struct {
		PostID uint
	}
	AllCleared         struct{}
	UserRepliesCleared struct{}
	ErrorsCleared      struct{}

	RequestStarted struct {
		Category Category
	}
	RequestFailed struct {
		Category Category
		Message  string
	}
	// RequestSucceeded ends a request; a non-empty Message becomes the
	// store's success message.
	RequestSucceeded struct {
		Category Category
		Message  string
	}

	// Batch applies its actions in order as one dispatch.
	Batch struct {
		Actions []Action
	}
)

func (ReplyCreated) isAction()        {}
func (ReplyUpdated) isAction()        {}
func (ReplyRemoved) isAction()        {}
func (VoteApplied) isAction()         {}
func (AnswerAccepted) isAction()      {}
func (ReplySoftDeleted) isAction()    {}
func (ExpandToggled) isAction()       {}
func (AllCollapsed) isAction()        {}
func (PostRepliesLoaded) isAction()   {}
func (NestedRepliesLoaded) isAction() {}
func (UserRepliesLoaded) isAction()   {}
func (PostCleared) isAction()         {}
func (AllCleared) isAction()          {}
func (UserRepliesCleared) isAction()  {}
func (ErrorsCleared) isAction()       {}
func (RequestStarted) isAction()      {}
func (RequestFailed) isAction()       {}
func (RequestSucceeded) isAction()    {}
func (Batch) isAction()               {}

// Reduce applies action to state in place and returns it. A nil state is
// replaced by a fresh one and a zero State gets its maps allocated. Unknown
// actions leave the state untouched.
func Reduce(state *State, action Action) *State {
	if state == nil {
		state = NewState()
	}
	state.ensureMaps()

	switch a := action.(type) {
	case ReplyCreated:
		state.Insert(a.PostID, a.Reply, a.ParentReplyID)
	case ReplyUpdated:
		state.ApplyFieldUpdate(a.ReplyID, a.Patch)
	case ReplyRemoved:
		state.Remove(a.ReplyID, a.PostID)
	case VoteApplied:
		state.ApplyVoteResult(a.ReplyID, a.Upvotes, a.Downvotes, a.VoteScore)
	case AnswerAccepted:
		state.MarkAccepted(a.ReplyID)
	case ReplySoftDeleted:
		state.SoftDeleteInStore(a.ReplyID)
	case ExpandToggled:
		state.ToggleExpanded(a.ReplyID)
	case AllCollapsed:
		state.CollapseAll()
	case PostRepliesLoaded:
		state.SetPostReplies(a.PostID, a.Replies)
	case NestedRepliesLoaded:
		state.SetNestedReplies(a.PostID, a.ParentReplyID, a.Replies)
	case UserRepliesLoaded:
		state.SetUserReplies(a.Replies, a.Pagination)
	case PostCleared:
		state.ClearPost(a.PostID)
	case AllCleared:
		state.ClearAll()
	case UserRepliesCleared:
		state.ClearUserReplies()
	case ErrorsCleared:
		state.ClearErrors()
	case RequestStarted:
		state.requestStarted(a.Category)
	case RequestFailed:
		state.requestFailed(a.Category, a.Message)
	case RequestSucceeded:
		state.requestSucceeded(a.Category, a.Message)
	case Batch:
		for _, inner := range a.Actions {
			state = Reduce(state, inner)
		}
	}
	return state
}
