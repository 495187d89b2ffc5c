package core

// Itoa converts an integer to a string without using fmt package
// This is a lightweight alternative for embedded systems
func Itoa(n int) string {
	return Itoa64(int64(n))
}

// Itoa64 converts a 64-bit signed integer (step positions) to a string
func Itoa64(n int64) string {
	if n == 0 {
		return "0"
	}

	negative := n < 0
	var u uint64
	if negative {
		u = uint64(-n)
	} else {
		u = uint64(n)
	}

	var buf [20]byte
	pos := len(buf)
	for u > 0 {
		pos--
		buf[pos] = byte('0' + u%10)
		u /= 10
	}

	if negative {
		pos--
		buf[pos] = '-'
	}

	return string(buf[pos:])
}

// Utoa converts an unsigned integer to a string
func Utoa(n uint32) string {
	if n == 0 {
		return "0"
	}

	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}

	return string(buf[pos:])
}

// Ftoa formats a non-huge float with one decimal place (speeds, accelerations).
// Values are truncated toward zero, not rounded.
func Ftoa(f float64) string {
	negative := f < 0
	if negative {
		f = -f
	}
	whole := int64(f)
	tenth := int64((f-float64(whole))*10) % 10
	s := Itoa64(whole) + "." + string(byte('0'+tenth))
	if negative {
		return "-" + s
	}
	return s
}

// Atoi parses an optionally signed decimal integer.
// ok is false for empty input or any non-digit character.
func Atoi(s string) (n int64, ok bool) {
	if len(s) == 0 {
		return 0, false
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if len(s) == 0 {
		return 0, false
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int64(c-'0')
	}

	if negative {
		n = -n
	}
	return n, true
}

// TrimSpace removes leading and trailing ASCII whitespace
func TrimSpace(s string) string {
	start := 0
	for start < len(s) && isSpace(s[start]) {
		start++
	}
	end := len(s)
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
