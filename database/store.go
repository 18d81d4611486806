package database

import "errors"

// Slot names. They are stable: renaming one orphans data already on disk.
const (
	SlotSession         = "vitalgeo_user_session"
	SlotCart            = "gemstone_cart"
	SlotLikes           = "gemstone_likes"
	SlotLikesCount      = "gemstone_likes_count"
	SlotExchangeRate    = "pkr_usd_rate"
	SlotCookies         = "vitalgeo_cookies"
	SlotPaymentNotified = "vitalgeo_payment_notified"
)

type Driver string

const (
	DriverFile     Driver = "file"
	DriverPostgres Driver = "postgres"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

// Store reads and writes named slots holding JSON blobs. There is no
// locking between processes: the last writer wins.
type Store interface {
	// Load decodes the slot into v. found is false when the slot is empty.
	Load(key string, v interface{}) (found bool, err error)
	Save(key string, v interface{}) error
	Remove(key string) error
}
