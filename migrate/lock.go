package migrate

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	ormerrors "github.com/oarkflow/orm/errors"
)

// acquireLock creates path exclusively, failing if another process
// already holds it - a lightweight guard against two migration runs
// racing against the same project directory, ported from the
// teacher's acquireLock/releaseLock pair. The lock file's contents are
// a fresh run token rather than left empty, so a stuck lock file can
// be told apart from a fresh one when a human goes looking at it.
func acquireLock(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, ormerrors.WrapMigrationsError(fmt.Sprintf(
				"another migration run appears to be in progress (lock file %q exists)", path), err)
		}
		return nil, ormerrors.WrapMigrationsError(fmt.Sprintf("acquiring migration lock %q", path), err)
	}
	if _, err := f.WriteString(uuid.NewString()); err != nil {
		f.Close()
		os.Remove(path)
		return nil, ormerrors.WrapMigrationsError(fmt.Sprintf("writing migration lock token %q", path), err)
	}
	return f, nil
}

func releaseLock(f *os.File, path string) {
	f.Close()
	os.Remove(path)
}
