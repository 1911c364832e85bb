package identity

import "errors"

// Field limits for registration input.
const (
	MaxNameLength        = 512
	MaxDescriptionLength = 1000
	MaxEmailLength       = 1000
	MinPasswordLength    = 8
	// bcrypt ignores anything past 72 bytes.
	MaxPasswordLength = 72
)

var (
	// ErrInvalidName indicates an empty or overlong name.
	ErrInvalidName = errors.New("name must be between 1 and 512 characters")
	// ErrInvalidDescription indicates an overlong description.
	ErrInvalidDescription = errors.New("description must be at most 1000 characters")
	// ErrInvalidEmail indicates a malformed or overlong e-mail address.
	ErrInvalidEmail = errors.New("email must be a valid address of at most 1000 characters")
	// ErrInvalidPassword indicates a password outside the accepted length.
	ErrInvalidPassword = errors.New("password must be between 8 and 72 bytes")
	// ErrInvalidLimit indicates a negative per-transaction limit.
	ErrInvalidLimit = errors.New("max per transaction must not be negative")
)

// Registration is the input for creating a user. Account ids are optional;
// at most one account per currency is opened at registration time.
type Registration struct {
	Name              string
	Description       string
	Email             string
	Password          string
	MaxPerTransaction int64
	BitcoinAccountID  string
	EthereumAccountID string
}
