package system

import (
	"fmt"
	"os/user"
	"strconv"
	"strings"
)

// ResolveOwner resolves a "user[:group]" specifier to numeric uid/gid.
// Both parts accept a name or a numeric id. When the group is omitted, a
// named user's primary group is used; a numeric user falls back to the same
// numeric gid.
func ResolveOwner(spec string) (uid, gid uint32, err error) {
	userPart := spec
	groupPart := ""
	if idx := strings.IndexByte(spec, ':'); idx >= 0 {
		userPart = spec[:idx]
		groupPart = spec[idx+1:]
	}
	if userPart == "" {
		return 0, 0, fmt.Errorf("invalid owner %q", spec)
	}

	if n, nerr := strconv.ParseUint(userPart, 10, 32); nerr == nil {
		uid = uint32(n)
		gid = uid
	} else {
		u, uerr := user.Lookup(userPart)
		if uerr != nil {
			return 0, 0, fmt.Errorf("unknown user %q: %w", userPart, uerr)
		}
		n, _ := strconv.ParseUint(u.Uid, 10, 32)
		uid = uint32(n)
		n, _ = strconv.ParseUint(u.Gid, 10, 32)
		gid = uint32(n)
	}

	if groupPart != "" {
		if n, nerr := strconv.ParseUint(groupPart, 10, 32); nerr == nil {
			gid = uint32(n)
		} else {
			g, gerr := user.LookupGroup(groupPart)
			if gerr != nil {
				return 0, 0, fmt.Errorf("unknown group %q: %w", groupPart, gerr)
			}
			n, _ := strconv.ParseUint(g.Gid, 10, 32)
			gid = uint32(n)
		}
	}

	return uid, gid, nil
}
