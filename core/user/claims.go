package user

import (
	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

var (
	ErrInvalidToken   = errors.New("invalid session token")
	ErrClaimsMismatch = errors.New("session claims do not match token")
)

// Claims represents the authorization claims issued by the backend inside the session token.
type Claims struct {
	jwt.StandardClaims
	UserID   string      `json:"id,omitempty"`
	ObjectID string      `json:"_id,omitempty"`
	Name     string      `json:"name,omitempty"`
	Email    string      `json:"email,omitempty"`
	Role     Role        `json:"role,omitempty"`
	ChildID  null.String `json:"childId,omitempty"`
}

// Record returns the typed user described by the claims.
func (c Claims) Record() Record {
	id := c.UserID
	if id == "" {
		id = c.ObjectID
	}
	if id == "" {
		id = c.Subject
	}
	return Record{
		ID:      id,
		Name:    c.Name,
		Email:   c.Email,
		Role:    c.Role,
		ChildID: c.ChildID,
	}
}

// ClaimsFor builds claims describing usr. Mostly used to mint tokens in tests and tools.
func ClaimsFor(usr Record, std jwt.StandardClaims) *Claims {
	if std.Subject == "" {
		std.Subject = usr.ID
	}
	return &Claims{
		StandardClaims: std,
		UserID:         usr.ID,
		Name:           usr.Name,
		Email:          usr.Email,
		Role:           usr.Role,
		ChildID:        usr.ChildID,
	}
}

// ParseToken decodes the session token claims.
// With a secret key the HS256 signature is verified, otherwise the claims are only decoded
// (the backend remains the sole authority on token validity).
func ParseToken(token, secretKey string) (*Claims, error) {
	claims := new(Claims)
	if token == "" {
		return nil, ErrInvalidToken
	}

	if secretKey == "" {
		if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
			return nil, errors.Wrap(ErrInvalidToken, err.Error())
		}
		if err := claims.Valid(); err != nil {
			return nil, errors.Wrap(ErrInvalidToken, err.Error())
		}
	} else {
		_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secretKey), nil
		})
		if err != nil {
			return nil, errors.Wrap(ErrInvalidToken, err.Error())
		}
	}

	if !claims.Record().Role.Valid() {
		return nil, errors.Wrap(ErrInvalidToken, "unknown role")
	}
	return claims, nil
}

// NewToken signs claims with HS256.
func NewToken(claims *Claims, secretKey string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// VerifyClaims checks that the typed claims returned alongside a token agree with the token itself.
func VerifyClaims(token, secretKey string, typed Record) (Record, error) {
	claims, err := ParseToken(token, secretKey)
	if err != nil {
		return Record{}, err
	}
	decoded := claims.Record()
	if typed.ID != "" && typed.ID != decoded.ID {
		return Record{}, ErrClaimsMismatch
	}
	if typed.Role != "" && typed.Role != decoded.Role {
		return Record{}, ErrClaimsMismatch
	}
	if typed.ChildID.Valid && typed.ChildID.String != decoded.ChildID.String {
		return Record{}, ErrClaimsMismatch
	}
	return decoded, nil
}
