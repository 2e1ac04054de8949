package hashpool

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/autobrr/lndup/pkg/digest"
)

const maxLine = 1 << 20

// Serve speaks the line protocol of a standalone hash worker: one path per input line,
// one raw digest per answer, digest.Zero plus an error line on errOut when hashing
// fails. An empty line or end of input stops the server.
func Serve(fs afero.Fs, in io.Reader, out io.Writer, errOut io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 4096), maxLine)

	h := digest.NewHasher(fs)
	for scanner.Scan() {
		path := scanner.Text()
		if path == "" {
			return nil
		}

		d, err := h.File(path)
		if err != nil {
			d = digest.Zero
			fmt.Fprintln(errOut, err)
		}

		if _, err := out.Write(d[:]); err != nil {
			return errors.Wrap(err, "write digest")
		}
	}

	return errors.Wrap(scanner.Err(), "read request")
}
