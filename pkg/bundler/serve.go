package bundler

import (
	"context"
	"fmt"
	"net"
	"path/filepath"
	"strconv"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/albertocavalcante/ubc/internal/log"
)

// ServeInfo describes a running dev server.
type ServeInfo struct {
	Host string
	Port uint16
}

// URL returns the server's base URL.
func (s ServeInfo) URL() string {
	host := s.Host
	if host == "" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(int(s.Port))) + "/"
}

// Serve builds the job, serves OutDir on the job's HMR host and port and, when
// HMR is on, rebuilds on change. It blocks until ctx is cancelled.
func (e *Esbuild) Serve(ctx context.Context, job Job, ready func(ServeInfo)) error {
	if err := compileRules(job.Options.Rules); err != nil {
		return err
	}
	opts := e.BuildOptions(job)
	bc, cerr := api.Context(opts)
	if cerr != nil {
		newReporter(e.out, job.Options).errors(cerr.Errors)
		return fmt.Errorf("%w: %s", ErrBuildFailed, firstText(cerr.Errors))
	}
	defer bc.Dispose()

	if job.Options.HMR {
		if err := bc.Watch(api.WatchOptions{}); err != nil {
			return fmt.Errorf("start watch: %w", err)
		}
	}

	port := job.Options.HMRPort
	if port == 0 {
		// esbuild reads 0 as "prefer 8000-8019".
		p, err := freePort(job.Options.HMRHostname)
		if err != nil {
			return fmt.Errorf("pick dev server port: %w", err)
		}
		port = p
	}

	res, err := bc.Serve(api.ServeOptions{
		Host:     job.Options.HMRHostname,
		Port:     uint16(port),
		Servedir: filepath.Join(job.WorkDir, job.Options.OutDir),
	})
	if err != nil {
		return fmt.Errorf("start dev server: %w", err)
	}

	info := ServeInfo{Host: res.Host, Port: res.Port}
	log.Component("serve").Info("dev server listening", "url", info.URL(), "hmr", job.Options.HMR)
	if ready != nil {
		ready(info)
	}

	<-ctx.Done()
	return nil
}

// freePort asks the OS for an unused TCP port on host.
func freePort(host string) (int, error) {
	l, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
