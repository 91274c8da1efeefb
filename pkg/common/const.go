package common

const (
	KEY_LAST_PRICE   = "last_price:%s"
	KEY_TICK         = "tick"
	KEY_USER_LIMITER = "critique:%s"
)

const (
	KEY_LOG_HOOK_SEND_ALERT = "send_alert"
)
