package lifecycle

import "strconv"

// SoraSize maps an aspect ratio to a provider frame size. 16:9 renders
// landscape; everything else (including 9:16) renders portrait.
func SoraSize(aspectRatio string) string {
	if aspectRatio == "16:9" {
		return "1280x720"
	}
	return "720x1280"
}

// SoraSeconds maps a requested duration to the provider's allowed set
// {4, 8, 12}. The legacy UI values 5 and 10 round to the nearest allowed
// value; anything else falls back to 4.
func SoraSeconds(duration int) string {
	switch duration {
	case 4, 8, 12:
		return strconv.Itoa(duration)
	case 5:
		return "4"
	case 10:
		return "12"
	default:
		return "4"
	}
}
