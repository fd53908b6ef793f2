// Package console prints the operator-facing chat view.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// ANSI palette used for chat lines.
var (
	white = lipgloss.Color("7")
	red   = lipgloss.Color("1")
	blue  = lipgloss.Color("4")
	green = lipgloss.Color("2")
	gray  = lipgloss.Color("8")
	cyan  = lipgloss.Color("6")
)

// Printer writes colored lines to w. Colors are dropped automatically when
// w is not a terminal.
type Printer struct {
	mu sync.Mutex
	w  io.Writer

	bracket  lipgloss.Style
	nick     lipgloss.Style
	channel  lipgloss.Style
	text     lipgloss.Style
	server   lipgloss.Style
	pong     lipgloss.Style
	errStyle lipgloss.Style
}

func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:        w,
		bracket:  r.NewStyle().Foreground(white),
		nick:     r.NewStyle().Foreground(red),
		channel:  r.NewStyle().Foreground(blue),
		text:     r.NewStyle().Foreground(green),
		server:   r.NewStyle().Foreground(gray),
		pong:     r.NewStyle().Foreground(cyan),
		errStyle: r.NewStyle().Foreground(red).Bold(true),
	}
}

// ServerText echoes raw server output seen before the channel is joined.
// Lines are styled one by one so the renderer does not pad them.
func (p *Printer) ServerText(chunk string) {
	lines := strings.Split(strings.TrimRight(chunk, "\r\n"), "\n")
	for i, l := range lines {
		lines[i] = p.server.Render(strings.TrimRight(l, "\r"))
	}
	p.println(strings.Join(lines, "\n"))
}

func (p *Printer) Pong(payload string) {
	p.println(p.pong.Render("PONG " + payload))
}

// Chat prints one channel line as [#CHANNEL]<nick@channel> text.
func (p *Printer) Chat(channel, nick, text string) {
	line := p.bracket.Render("[#"+strings.ToUpper(channel)+"]") +
		p.nick.Render("<"+nick) +
		p.bracket.Render("@") +
		p.channel.Render(channel+">") + " " +
		p.text.Render(text)
	p.println(line)
}

func (p *Printer) Error(msg string, err error) {
	p.println(p.errStyle.Render(fmt.Sprintf("%s: %v", msg, err)))
}

func (p *Printer) println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintln(p.w, s)
}
