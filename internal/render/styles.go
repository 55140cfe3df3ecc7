package render

// Styles controls ANSI color output. The zero value renders plain text,
// so tests and piped output need no special casing.
type Styles struct {
	Enabled bool
}

func (s Styles) paint(code, text string) string {
	if !s.Enabled {
		return text
	}
	return "\033[" + code + "m" + text + "\033[0m"
}

func (s Styles) Bold(text string) string  { return s.paint("1", text) }
func (s Styles) Dim(text string) string   { return s.paint("2", text) }
func (s Styles) Red(text string) string   { return s.paint("31", text) }
func (s Styles) Green(text string) string { return s.paint("32", text) }
func (s Styles) Cyan(text string) string  { return s.paint("36", text) }
