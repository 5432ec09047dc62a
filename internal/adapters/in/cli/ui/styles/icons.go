package styles

// Plain unicode icons, readable without a patched font.
const (
	IconSuccess = "✔"
	IconError   = "✘"
	IconWarning = "!"
	IconInfo    = "i"
	IconPending = "…"
	IconBullet  = "▸"
)
