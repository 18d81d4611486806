package auth

import (
	"errors"
	"fmt"
	"github.com/dgrijalva/jwt-go"
	"time"
	"vital_geo/model"
)

var errSnapshotExpired = errors.New("session snapshot expired")

type sessionClaims struct {
	User      model.User `json:"user"`
	Timestamp int64      `json:"timestamp"`
	jwt.StandardClaims
}

// storedSession is the slot payload: the snapshot signed with HS256 so a
// hand-edited slot is rejected instead of rehydrated.
type storedSession struct {
	Token string `json:"token"`
}

type snapshotCodec struct {
	secret []byte
	maxAge time.Duration
}

func (c snapshotCodec) encode(snap model.SessionSnapshot) (storedSession, error) {
	claims := sessionClaims{
		User:      snap.User,
		Timestamp: snap.Timestamp,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  snap.CapturedAt().Unix(),
			ExpiresAt: snap.CapturedAt().Add(c.maxAge).Unix(),
			Subject:   snap.User.ID,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return storedSession{}, err
	}
	return storedSession{Token: token}, nil
}

// decode verifies the signature and checks the age against now. Expiry is
// evaluated here rather than by jwt-go so the clock stays injectable.
func (c snapshotCodec) decode(stored storedSession, now time.Time) (model.SessionSnapshot, error) {
	parser := jwt.Parser{SkipClaimsValidation: true}
	var claims sessionClaims
	_, err := parser.ParseWithClaims(stored.Token, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return model.SessionSnapshot{}, err
	}
	snap := model.SessionSnapshot{User: claims.User, Timestamp: claims.Timestamp}
	if now.Sub(snap.CapturedAt()) > c.maxAge {
		return model.SessionSnapshot{}, errSnapshotExpired
	}
	return snap, nil
}
