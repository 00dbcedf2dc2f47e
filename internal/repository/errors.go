// Package repository defines the persistence layer over the users table and
// the sentinel errors it can report. These sentinel values let higher layers
// distinguish domain outcomes (an email that already exists, a user that is
// missing) from infrastructure failures, without ever inspecting driver
// error codes outside this package.
package repository

import "errors"

// ErrEmailExists is returned by Create when the email column's unique
// constraint rejects the insert. The service layer translates this into
// its already-registered signal.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned by UpdateOTP when no row matches the given
// email. Reads report a missing row as (nil, nil) instead, because a lookup
// miss is a first-class negative result rather than a failure.
var ErrUserNotFound = errors.New("user not found")
