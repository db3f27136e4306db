package group

type Kind int

const (
	KindBadRequest Kind = iota + 1
	KindForbidden
	KindNotFound
)

// Error is a client-facing failure; Kind selects the HTTP status
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

var (
	ErrGroupNotFound  = newError(KindNotFound, "Group not found")
	ErrNameRequired   = newError(KindBadRequest, "Group name is required")
	ErrDuplicateName  = newError(KindBadRequest, "A group with this name already exists")
	ErrInvalidGroupID = newError(KindBadRequest, "Invalid group ID format")

	ErrUpdateForbidden  = newError(KindForbidden, "Only the group creator can update this group")
	ErrDeleteForbidden  = newError(KindForbidden, "Only the group creator can delete this group")
	ErrRemoveForbidden  = newError(KindForbidden, "Only the group creator can remove members")
	ErrReviewForbidden  = newError(KindForbidden, "Only the group creator can manage join requests")
	ErrPictureForbidden = newError(KindForbidden, "Only the group creator can change the group picture")
	ErrPrivateMembers   = newError(KindForbidden, "Cannot view members of private group")
	ErrPrivateGroup     = newError(KindForbidden, "This group is private. Send a join request instead")

	ErrAlreadyMember       = newError(KindBadRequest, "You are already a member of this group")
	ErrNotMember           = newError(KindBadRequest, "You are not a member of this group")
	ErrCreatorCannotLeave  = newError(KindBadRequest, "Group creator cannot leave the group")
	ErrAlreadyRequested    = newError(KindBadRequest, "You already have a pending request for this group")
	ErrNoPendingRequest    = newError(KindBadRequest, "No pending request from this user")
	ErrCannotRemoveCreator = newError(KindBadRequest, "Group creator cannot be removed. Transfer ownership first.")
	ErrUserNotMember       = newError(KindBadRequest, "User is not a member of this group")
)
