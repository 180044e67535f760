package directory

import (
	"context"
	"strconv"
	"strings"

	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
)

// CreateUser registers a new user. The password is hashed before the transaction
// opens. The id and username checks and the insert run in one transaction; a
// uniqueness violation reported late by the store still surfaces as a conflict.
func (s *Service) CreateUser(ctx context.Context, in NewUser) (domain.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return domain.User{}, domain.ErrMissingField("username")
	}
	if in.Password == "" {
		return domain.User{}, domain.ErrMissingField("password")
	}
	if err := domain.ValidateSchedule(in.CountryCode, in.JobRunMinute); err != nil {
		return domain.User{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if domain.KindOf(err) == "" {
			err = domain.ErrHashFailed(err)
		}
		return domain.User{}, err
	}

	var created domain.User
	err = s.store.InTx(ctx, func(tx UserStore) error {
		if in.ID != 0 {
			_, err := tx.GetByID(ctx, in.ID)
			if err == nil {
				return domain.ErrUserIDExists(in.ID)
			}
			if !isNotFound(err) {
				return err
			}
		}

		_, err := tx.GetByUsername(ctx, username)
		if err == nil {
			return domain.ErrUsernameExists(username)
		}
		if !isNotFound(err) {
			return err
		}

		u := domain.User{
			Username:     username,
			PasswordHash: hash,
			JobRunMinute: in.JobRunMinute,
		}
		if in.CountryCode != nil {
			cc := domain.NormalizeCountryCode(*in.CountryCode)
			u.CountryCode = &cc
		}
		u.Reschedule(s.now())

		created, err = tx.Create(ctx, u)
		return err
	})
	if err != nil {
		return domain.User{}, err
	}

	s.audit("user.create", map[string]string{
		"user_id":           strconv.FormatInt(created.ID, 10),
		"username":          created.Username,
		"next_job_run_time": created.NextJobRunTime.Format(timeLayout),
	})
	return created, nil
}
