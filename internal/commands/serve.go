package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"

	"jtask/internal/config"
	"jtask/internal/exitcode"
	"jtask/internal/server"
)

func init() {
	Register(&ServeCmd{})
}

// ServeCmd runs the HTTP endpoint a bot calls to invoke actions.
type ServeCmd struct {
	addr string
}

func (c *ServeCmd) Name() string      { return "serve" }
func (c *ServeCmd) Aliases() []string { return nil }
func (c *ServeCmd) Synopsis() string  { return "Serve task actions over HTTP for a bot" }
func (c *ServeCmd) Usage() string     { return "jtask serve [--addr <host:port>]" }
func (c *ServeCmd) NeedsAuth() bool   { return true }

func (c *ServeCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.addr, "addr", "", "listen address (default: server.addr from config)")
}

func (c *ServeCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	addr := c.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	store, err := sess.Store()
	if err != nil {
		fmt.Fprintf(errOut, "error: state: %v\n", err)
		return exitcode.BackendError
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.New(sess.Actions(cfg), store, sess.Logger)
	if !cfg.Quiet {
		fmt.Fprintf(errOut, "listening on %s\n", addr)
	}
	if err := srv.Run(ctx, addr); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
