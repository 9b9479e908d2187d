package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/postboard/internal/apperr"
	"github.com/postboard/internal/observability"
)

// AccessPolicy 负责访问时间段与作者身份两类权限判断。
//
// The blocked window runs from BlockStart:00 up to, but excluding,
// BlockEnd:00 and may wrap midnight.
type AccessPolicy struct {
	BlockStart int
	BlockEnd   int
	loc        *time.Location
}

// NewAccessPolicy builds a policy blocking [start:00, end:00) local time.
func NewAccessPolicy(start, end int) *AccessPolicy {
	return &AccessPolicy{BlockStart: start, BlockEnd: end, loc: time.Local}
}

// WithLocation evaluates the window in loc instead of the server's zone.
func (p *AccessPolicy) WithLocation(loc *time.Location) *AccessPolicy {
	if loc != nil {
		p.loc = loc
	}
	return p
}

// AllowedAt reports whether t falls outside the blocked window.
func (p *AccessPolicy) AllowedAt(t time.Time) bool {
	hour := t.In(p.loc).Hour()
	switch {
	case p.BlockStart == p.BlockEnd:
		return true
	case p.BlockStart < p.BlockEnd:
		return hour < p.BlockStart || hour >= p.BlockEnd
	default:
		return hour < p.BlockStart && hour >= p.BlockEnd
	}
}

// CheckTime returns PERMISSION_DENIED when t is inside the blocked window.
func (p *AccessPolicy) CheckTime(t time.Time) error {
	if p.AllowedAt(t) {
		return nil
	}
	observability.RecordRejection(observability.RuleTimeWindow)
	return apperr.PermissionDenied(fmt.Sprintf(
		"this resource is unavailable between %02d:00 and %02d:00", p.BlockStart, p.BlockEnd))
}

// IsReadMethod reports whether method never modifies state.
func IsReadMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// CanModify 读请求总是允许，写请求仅允许资源作者本人。
func (p *AccessPolicy) CanModify(method string, ownerID, userID uint) bool {
	if IsReadMethod(method) {
		return true
	}
	return userID != 0 && ownerID == userID
}

// AuthorizeOwner returns PERMISSION_DENIED when CanModify is false.
func (p *AccessPolicy) AuthorizeOwner(method string, ownerID, userID uint) error {
	if p.CanModify(method, ownerID, userID) {
		return nil
	}
	observability.RecordRejection(observability.RuleOwnership)
	return apperr.PermissionDenied("only the author may modify this post")
}
