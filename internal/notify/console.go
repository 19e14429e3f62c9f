package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// Console writes notifications as single lines, for headless hosts
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole creates a console transport writing to out
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Name returns the transport name
func (c *Console) Name() string {
	return TransportConsole
}

// Send writes "[title] subject <url>"
func (c *Console) Send(ctx context.Context, n Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	title := color.New(color.Bold).Sprintf("[%s]", n.Title)
	_, err := fmt.Fprintf(c.out, "%s %s <%s>\n", title, n.Message, n.URL)
	return err
}
