package localserver

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"time"
)

// DefaultPerm is the default socket file mode.
const DefaultPerm fs.FileMode = 0o660

// ErrInUse is returned when another process serves the socket path.
var ErrInUse = errors.New("localserver: socket already in use")

// Listen creates a Unix domain socket listener at path with mode perm.
// A zero perm uses DefaultPerm.
func Listen(path string, perm fs.FileMode) (net.Listener, error) {
	if perm == 0 {
		perm = DefaultPerm
	}
	if err := removeStale(path); err != nil {
		return nil, err
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("localserver: listen %s: %w", path, err)
	}
	ln.(*net.UnixListener).SetUnlinkOnClose(true)

	if err := os.Chmod(path, perm); err != nil {
		ln.Close()
		return nil, fmt.Errorf("localserver: chmod %s: %w", path, err)
	}
	return ln, nil
}

// removeStale deletes a socket file nobody is accepting on. Other file
// types are left alone so a misconfigured path cannot destroy data.
func removeStale(path string) error {
	fi, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("localserver: stat %s: %w", path, err)
	}
	if fi.Mode()&fs.ModeSocket == 0 {
		return fmt.Errorf("localserver: %s exists and is not a socket", path)
	}

	conn, err := net.DialTimeout("unix", path, 100*time.Millisecond)
	if err == nil {
		conn.Close()
		return fmt.Errorf("%w: %s", ErrInUse, path)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("localserver: remove stale socket: %w", err)
	}
	return nil
}
