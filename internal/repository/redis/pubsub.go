package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// ZonesPubSub fans out "zone changed" hints so collaborators can refresh
// availability. Messages carry no counts.
type ZonesPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewZonesPubSub(rdb *redis.Client) *ZonesPubSub {
	return &ZonesPubSub{
		rdb:     rdb,
		channel: ChannelZonesChanged(),
	}
}

type zoneChangedMsg struct {
	Type   string `json:"type"`
	ZoneID int64  `json:"zone_id"`
	TsUnix int64  `json:"ts_unix"`
}

func (p *ZonesPubSub) PublishZoneChanged(ctx context.Context, zoneID int64) error {
	if p == nil || p.rdb == nil {
		return nil
	}

	msg := zoneChangedMsg{
		Type:   "zone_changed",
		ZoneID: zoneID,
		TsUnix: time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

func (p *ZonesPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, zoneID int64)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var ev zoneChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &ev); err == nil &&
				ev.ZoneID != 0 {
				handler(ctx, ev.ZoneID)
			}
		}
	}
}
