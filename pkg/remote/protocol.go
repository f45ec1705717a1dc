package remote

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/odvcencio/minigit/pkg/object"
)

const (
	headsPrefix = "refs/heads/"
	tagsPrefix  = "refs/tags/"
	// peeledSuffix marks the commit an annotated tag points at.
	peeledSuffix = "^{}"

	maxPktLen = 65520
)

// ErrProtocol reports a malformed ref advertisement.
var ErrProtocol = errors.New("malformed ref advertisement")

// Advertisement is the set of refs a remote offers.
type Advertisement struct {
	// Refs maps full ref names (refs/heads/main, HEAD) to hashes.
	Refs map[string]object.Hash
	// Capabilities is the list sent after NUL on the first ref line.
	Capabilities []string
}

// Branches returns refs/heads/* keyed by short name.
func (a *Advertisement) Branches() map[string]object.Hash {
	return a.withPrefix(headsPrefix)
}

// Tags returns refs/tags/* keyed by short name. Peeled entries are folded
// so that an annotated tag maps to the commit it points at.
func (a *Advertisement) Tags() map[string]object.Hash {
	tags := a.withPrefix(tagsPrefix)
	for name, h := range tags {
		base, peeled := strings.CutSuffix(name, peeledSuffix)
		if !peeled {
			continue
		}
		delete(tags, name)
		tags[base] = h
	}
	return tags
}

func (a *Advertisement) withPrefix(prefix string) map[string]object.Hash {
	out := make(map[string]object.Hash)
	for name, h := range a.Refs {
		if short, ok := strings.CutPrefix(name, prefix); ok && short != "" {
			out[short] = h
		}
	}
	return out
}

// DefaultBranch picks the branch a clone checks out: the symref target of
// HEAD when advertised, then main, then master, then the first branch by
// name. It returns "" when the remote has no branches.
func (a *Advertisement) DefaultBranch() string {
	branches := a.Branches()
	for _, c := range a.Capabilities {
		target, ok := strings.CutPrefix(c, "symref=HEAD:"+headsPrefix)
		if _, exists := branches[target]; ok && exists {
			return target
		}
	}
	for _, name := range []string{"main", "master"} {
		if _, ok := branches[name]; ok {
			return name
		}
	}
	names := make([]string, 0, len(branches))
	for name := range branches {
		names = append(names, name)
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return names[0]
}

// ParseAdvertisement reads an info/refs response. Smart-HTTP bodies are
// pkt-lines (four hex digits of length, 0000 flush); dumb-HTTP bodies are
// plain "<hash> <ref>" lines separated by whitespace. Service banners are
// skipped, and capabilities after NUL on the first ref are recorded.
func ParseAdvertisement(r io.Reader) (*Advertisement, error) {
	br := bufio.NewReader(r)
	adv := &Advertisement{Refs: make(map[string]object.Hash)}

	head, err := br.Peek(2*object.HashSize + 1)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if isPktStream(head) {
		for {
			payload, flush, err := readPktLine(br)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, err
			}
			if flush {
				continue
			}
			if err := adv.addLine(string(payload)); err != nil {
				return nil, err
			}
		}
		return adv, nil
	}

	scanner := bufio.NewScanner(br)
	for scanner.Scan() {
		if err := adv.addLine(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return adv, nil
}

func (a *Advertisement) addLine(line string) error {
	line = strings.TrimRight(line, "\r\n")
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "version ") {
		return nil
	}
	line, caps, hasCaps := strings.Cut(line, "\x00")
	if hasCaps {
		a.Capabilities = append(a.Capabilities, strings.Fields(caps)...)
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return fmt.Errorf("%w: %q", ErrProtocol, line)
	}
	h, err := object.ParseHash(fields[0])
	if err != nil {
		return fmt.Errorf("%w: ref %q: %v", ErrProtocol, fields[1], err)
	}
	// capabilities^{} is the placeholder an empty repository advertises.
	if fields[1] == "capabilities^{}" {
		return nil
	}
	a.Refs[fields[1]] = h
	return nil
}

// readPktLine reads one pkt-line. flush is true for the 0000 packet.
func readPktLine(r *bufio.Reader) (payload []byte, flush bool, err error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, false, fmt.Errorf("%w: truncated length", ErrProtocol)
		}
		return nil, false, err
	}
	n, err := strconv.ParseUint(string(lenBuf[:]), 16, 16)
	if err != nil {
		return nil, false, fmt.Errorf("%w: bad length %q", ErrProtocol, lenBuf[:])
	}
	switch {
	case n == 0:
		return nil, true, nil
	case n < 4 || n > maxPktLen:
		return nil, false, fmt.Errorf("%w: length %d out of range", ErrProtocol, n)
	}
	payload = make([]byte, n-4)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, false, fmt.Errorf("%w: truncated packet: %v", ErrProtocol, err)
	}
	return bytes.TrimSuffix(payload, []byte("\n")), false, nil
}

// isPktStream tells pkt-lines from plain ref lines. Both may begin with
// four hex digits, but a plain line has whitespace right after its hash.
func isPktStream(head []byte) bool {
	if len(head) < 4 || !isHex(head[:4]) {
		return false
	}
	hashLen := 2 * object.HashSize
	plain := len(head) > hashLen && (head[hashLen] == ' ' || head[hashLen] == '\t') && isHex(head[:hashLen])
	return !plain
}

func isHex(b []byte) bool {
	for _, c := range b {
		if !strings.ContainsRune("0123456789abcdefABCDEF", rune(c)) {
			return false
		}
	}
	return true
}
