package friends

import "errors"

// Sentinel errors surfaced by the friend-relationship service. All of them
// describe client input or state conflicts; infrastructure failures are
// wrapped and propagated unchanged alongside this taxonomy.
var (
	// ErrInvalidTarget indicates the receiver is the sender or does not exist.
	ErrInvalidTarget = errors.New("invalid request target")
	// ErrAlreadyFriends indicates a confirmed edge already exists between the pair.
	ErrAlreadyFriends = errors.New("users are already friends")
	// ErrRequestExists indicates an open request already exists for the pair, in either direction.
	ErrRequestExists = errors.New("open friend request already exists")
	// ErrNotFound indicates no request with the given id exists.
	ErrNotFound = errors.New("friend request not found")
	// ErrForbidden indicates the acting user is not a party entitled to the operation.
	ErrForbidden = errors.New("not a party to this friend request")
	// ErrAlreadyResolved indicates the request left the pending state before the operation ran.
	ErrAlreadyResolved = errors.New("friend request already resolved")
)
