package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/eliteGoblin/expurgate/internal/domain"
)

var (
	// ErrEmpty is returned for a blank line.
	ErrEmpty = errors.New("empty command")
	// ErrHelp is returned for "help".
	ErrHelp = errors.New("help requested")
)

// Usage lists the commands ParseIntent understands.
const Usage = `Commands:
  allow add NAME    never close NAME (e.g. Code.exe)
  allow rm NAME     remove NAME from the allow list
  kill add NAME     always close NAME, even if it looks hidden
  kill rm NAME      remove NAME from the kill list
  close             close every app now
  showall           toggle the visibility filter
  quit              save and exit
`

// ParseIntent turns one typed line into an intent.
func ParseIntent(line string) (domain.Intent, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return domain.Intent{}, ErrEmpty
	}

	cmd := strings.ToLower(fields[0])
	switch cmd {
	case "help", "?":
		return domain.Intent{}, ErrHelp
	case "close":
		return domain.Intent{Kind: domain.IntentCloseAll}, nil
	case "showall":
		return domain.Intent{Kind: domain.IntentToggleShowAll}, nil
	case "quit", "exit":
		return domain.Intent{Kind: domain.IntentQuit}, nil
	case "allow", "kill":
	default:
		return domain.Intent{}, fmt.Errorf("unknown command %q", fields[0])
	}

	if len(fields) < 3 {
		return domain.Intent{}, fmt.Errorf("usage: %s add|rm NAME", cmd)
	}
	// Names may contain spaces; keep everything after the verb.
	rest := line[strings.Index(line, fields[0])+len(fields[0]):]
	name := strings.TrimSpace(rest[strings.Index(rest, fields[1])+len(fields[1]):])

	var kind domain.IntentKind
	switch strings.ToLower(fields[1]) {
	case "add":
		kind = domain.IntentAllowAdd
		if cmd == "kill" {
			kind = domain.IntentKillAdd
		}
	case "rm", "remove":
		kind = domain.IntentAllowRemove
		if cmd == "kill" {
			kind = domain.IntentKillRemove
		}
	default:
		return domain.Intent{}, fmt.Errorf("usage: %s add|rm NAME", cmd)
	}
	return domain.Intent{Kind: kind, Name: name}, nil
}

// ReadIntents reads commands from r until EOF or ctx is done, sending each
// parsed intent to out. Parse errors and help go to errOut. out is closed
// on return.
func ReadIntents(ctx context.Context, r io.Reader, out chan<- domain.Intent, errOut io.Writer) error {
	defer close(out)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		in, err := ParseIntent(scanner.Text())
		switch {
		case errors.Is(err, ErrEmpty):
			continue
		case errors.Is(err, ErrHelp):
			io.WriteString(errOut, Usage)
			continue
		case err != nil:
			fmt.Fprintf(errOut, "%v (type 'help')\n", err)
			continue
		}

		select {
		case out <- in:
		case <-ctx.Done():
			return ctx.Err()
		}
		if in.Kind == domain.IntentQuit {
			return nil
		}
	}
	return scanner.Err()
}
