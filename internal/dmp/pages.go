package dmp

import (
	"context"
	"fmt"
	"strconv"
)

// Paged queries issue the initial request through the session, then
// request further pages until the panel signals completion (an empty
// page or a missing more-marker). Pages arrive in panel order and are
// neither reordered nor deduplicated. MaxPages bounds every loop so a
// panel that never signals completion cannot spin us forever.

// UserCodes retrieves and deobfuscates all user-code records.
func (s *Session) UserCodes(ctx context.Context) ([]UserCode, error) {
	var records []string
	start := "0000"
	for page := 0; ; page++ {
		if page >= s.cfg.MaxPages {
			return nil, fmt.Errorf("%w after %d user-code pages", ErrPaginationOverrun, page)
		}
		r, err := s.Send(ctx, Command{Verb: VerbUserCodes, Start: start})
		if err != nil {
			return nil, err
		}
		if r.Users == nil {
			break
		}
		records = append(records, r.Users.Records...)
		if !r.Users.HasMore || r.Users.LastNumber == "" {
			break
		}
		last, err := strconv.Atoi(r.Users.LastNumber)
		if err != nil {
			break
		}
		start = fmt.Sprintf("%04d", last+1)
	}

	// Deobfuscate and parse only once the full payload is in hand.
	users := make([]UserCode, 0, len(records))
	for _, rec := range records {
		plain := DeobfuscateUserCode(s.account, rec, s.cfg.RemoteKey)
		if u, ok := ParseUserCode(plain); ok {
			users = append(users, u)
		}
	}
	return users, nil
}

// UserProfiles retrieves all user-profile records. Profiles travel in
// plain text and need no deobfuscation.
func (s *Session) UserProfiles(ctx context.Context) ([]UserProfile, error) {
	var profiles []UserProfile
	start := "000"
	for page := 0; ; page++ {
		if page >= s.cfg.MaxPages {
			return nil, fmt.Errorf("%w after %d profile pages", ErrPaginationOverrun, page)
		}
		r, err := s.Send(ctx, Command{Verb: VerbUserProfiles, Start: start})
		if err != nil {
			return nil, err
		}
		if r.Profiles == nil {
			break
		}
		profiles = append(profiles, r.Profiles.Profiles...)
		if !r.Profiles.HasMore || r.Profiles.LastNumber == "" {
			break
		}
		last, err := strconv.Atoi(r.Profiles.LastNumber)
		if err != nil {
			break
		}
		start = fmt.Sprintf("%03d", last+1)
	}
	return profiles, nil
}

// Status walks the paged combined area/zone status query: an initial
// ?WB**Y001, then bare ?WB continuations until a page comes back
// empty.
func (s *Session) Status(ctx context.Context) ([]AreaStatus, []ZoneStatus, error) {
	var areas []AreaStatus
	var zones []ZoneStatus

	cmd := Command{Verb: VerbZoneStatus, Start: "001"}
	for page := 0; ; page++ {
		if page >= s.cfg.MaxPages {
			return nil, nil, fmt.Errorf("%w after %d status pages", ErrPaginationOverrun, page)
		}
		r, err := s.Send(ctx, cmd)
		if err != nil {
			return nil, nil, err
		}
		if r.Status == nil || r.Status.Empty() {
			break
		}
		areas = append(areas, r.Status.Areas...)
		zones = append(zones, r.Status.Zones...)
		cmd = Command{Verb: VerbZoneStatusCont}
	}
	return areas, zones, nil
}
