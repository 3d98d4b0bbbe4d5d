package notification

// Quota holds the fixed-window limits for one channel over the three
// rolling windows.
type Quota struct {
	MaxPerMinute int `json:"max_per_minute"`
	MaxPerHour   int `json:"max_per_hour"`
	MaxPerDay    int `json:"max_per_day"`
}

// QuotaTable maps channels to their quota tier. Channels without an
// entry get the Default tier, so an unrecognized type is still bounded.
type QuotaTable struct {
	Channels map[Channel]Quota
	Default  Quota
}

// DefaultQuotaTable returns the built-in per-channel quota tiers.
// SMS carries the tightest tier since SMS providers bill per message.
func DefaultQuotaTable() QuotaTable {
	return QuotaTable{
		Channels: map[Channel]Quota{
			ChannelEmail: {MaxPerMinute: 2, MaxPerHour: 10, MaxPerDay: 20},
			ChannelSMS:   {MaxPerMinute: 1, MaxPerHour: 5, MaxPerDay: 10},
			ChannelInApp: {MaxPerMinute: 5, MaxPerHour: 30, MaxPerDay: 100},
			ChannelPush:  {MaxPerMinute: 3, MaxPerHour: 15, MaxPerDay: 50},
		},
		Default: Quota{MaxPerMinute: 2, MaxPerHour: 20, MaxPerDay: 50},
	}
}

// For returns the quota tier for a channel.
func (t QuotaTable) For(ch Channel) Quota {
	if q, ok := t.Channels[ch]; ok {
		return q
	}
	return t.Default
}

// RetryAfterHint suggests when a rejected caller should retry, in
// seconds. SMS gets a longer hint because its quota is the tightest.
func RetryAfterHint(ch Channel) int {
	if ch == ChannelSMS {
		return 60
	}
	return 30
}
