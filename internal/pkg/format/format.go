package format

import (
	"fmt"
	"strings"
	"time"
)

func Percent(val float64) string {
	if val == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", val)
}

func Float(val float64, decimals int) string {
	if decimals < 0 {
		decimals = 4
	}
	out := fmt.Sprintf("%.*f", decimals, val)
	out = strings.TrimRight(strings.TrimRight(out, "0"), ".")
	if out == "" {
		return "0"
	}
	return out
}

// Duration 把时长渲染成 1h2m / 3m4s / 5s 的形式。
func Duration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, d/time.Second)
	}
	return fmt.Sprintf("%ds", d/time.Second)
}

// Age 数据新鲜度：距 t 过去了多久；t 为零值时返回 "-"。
func Age(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return Duration(time.Since(t))
}
