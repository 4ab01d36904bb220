package redis

import (
	"fmt"
	"net/url"
)

const ns = "parkgo:v1"

func KeyZone(zoneID int64) string {
	return fmt.Sprintf("%s:zone:%d", ns, zoneID)
}

func KeyZoneSlots(zoneID int64) string {
	return fmt.Sprintf("%s:zone:%d:slots", ns, zoneID)
}

func KeyZoneList() string {
	return ns + ":zones"
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

// KeyIdemHold scopes a client idempotency key to one user and zone.
func KeyIdemHold(zoneID int64, userID, idemKey string) string {
	return fmt.Sprintf("%s:idem:holds:%d:%s:%s", ns, zoneID, url.QueryEscape(userID), idemKey)
}

func KeySweepLease() string {
	return ns + ":sweeper:lease"
}

func ChannelZonesChanged() string {
	return ns + ":zones:changed"
}
