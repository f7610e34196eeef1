package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
)

type versionRepositoryImpl struct {
	store *Store
}

func NewVersionRepository(store *Store) timesheet.VersionRepository {
	return &versionRepositoryImpl{store: store}
}

// LockPeriod implements timesheet.VersionRepository. Transactions on the
// store already run one at a time.
func (r *versionRepositoryImpl) LockPeriod(ctx context.Context, key timesheet.PeriodKey) error {
	if !inTx(ctx) {
		return fmt.Errorf("lock %s: no transaction in context", key.LockKey())
	}
	return nil
}

func (r *versionRepositoryImpl) GetCurrent(ctx context.Context, key timesheet.PeriodKey) (timesheet.Version, error) {
	var (
		found timesheet.Version
		ok    bool
	)
	r.store.read(ctx, func() {
		for _, v := range r.store.versions {
			if v.IsCurrent && v.PeriodKey() == key {
				found, ok = v, true
				return
			}
		}
	})
	if !ok {
		return timesheet.Version{}, timesheet.ErrVersionNotFound
	}
	return found, nil
}

func (r *versionRepositoryImpl) GetByID(ctx context.Context, id string) (timesheet.Version, error) {
	var (
		found timesheet.Version
		ok    bool
	)
	r.store.read(ctx, func() {
		found, ok = r.store.versions[id]
	})
	if !ok {
		return timesheet.Version{}, notFound(timesheet.ErrVersionNotFound, "version", id)
	}
	return found, nil
}

func (r *versionRepositoryImpl) filter(ctx context.Context, keep func(timesheet.Version) bool) []timesheet.Version {
	var out []timesheet.Version
	r.store.read(ctx, func() {
		for _, v := range r.store.versions {
			if keep(v) {
				out = append(out, v)
			}
		}
	})
	return out
}

func (r *versionRepositoryImpl) ListByPeriod(ctx context.Context, key timesheet.PeriodKey) ([]timesheet.Version, error) {
	out := r.filter(ctx, func(v timesheet.Version) bool { return v.PeriodKey() == key })
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (r *versionRepositoryImpl) ListByUser(ctx context.Context, userID string) ([]timesheet.Version, error) {
	out := r.filter(ctx, func(v timesheet.Version) bool { return v.UserID == userID })
	sortNewestFirst(out)
	return out, nil
}

func (r *versionRepositoryImpl) ListCurrentByApprover(ctx context.Context, approverID string, status timesheet.Status) ([]timesheet.Version, error) {
	out := r.filter(ctx, func(v timesheet.Version) bool {
		return v.IsCurrent && v.Status == status && v.IsAssignedTo(approverID)
	})
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].SubmittedAt, out[j].SubmittedAt
		switch {
		case a == nil && b == nil:
			return out[i].ID < out[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.Before(*b)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *versionRepositoryImpl) ListByApprover(ctx context.Context, approverID string) ([]timesheet.Version, error) {
	out := r.filter(ctx, func(v timesheet.Version) bool { return v.IsAssignedTo(approverID) })
	sortNewestFirst(out)
	return out, nil
}

func (r *versionRepositoryImpl) CountApprovedBetween(ctx context.Context, approverID string, from, to time.Time) (int, error) {
	out := r.filter(ctx, func(v timesheet.Version) bool {
		return v.Status == timesheet.StatusApproved && v.IsAssignedTo(approverID) &&
			v.ApprovedAt != nil && !v.ApprovedAt.Before(from) && !v.ApprovedAt.After(to)
	})
	return len(out), nil
}

func (r *versionRepositoryImpl) Create(ctx context.Context, version timesheet.Version) (timesheet.Version, error) {
	err := r.store.write(ctx, func() error {
		if version.IsCurrent {
			for _, v := range r.store.versions {
				if v.IsCurrent && v.PeriodKey() == version.PeriodKey() {
					return fmt.Errorf("period %s already has current version %s", version.PeriodKey().LockKey(), v.ID)
				}
			}
		}
		now := r.store.now()
		version.ID = newID()
		version.CreatedAt = now
		version.UpdatedAt = now
		r.store.versions[version.ID] = version
		return nil
	})
	if err != nil {
		return timesheet.Version{}, err
	}
	return version, nil
}

func (r *versionRepositoryImpl) Update(ctx context.Context, version timesheet.Version) error {
	return r.store.write(ctx, func() error {
		existing, ok := r.store.versions[version.ID]
		if !ok {
			return notFound(timesheet.ErrVersionNotFound, "version", version.ID)
		}
		version.CreatedAt = existing.CreatedAt
		version.UpdatedAt = r.store.now()
		r.store.versions[version.ID] = version
		return nil
	})
}

func sortNewestFirst(vs []timesheet.Version) {
	sort.Slice(vs, func(i, j int) bool {
		if vs[i].Year != vs[j].Year {
			return vs[i].Year > vs[j].Year
		}
		if vs[i].Month != vs[j].Month {
			return vs[i].Month > vs[j].Month
		}
		return vs[i].Version > vs[j].Version
	})
}
