package admin

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"thriftshop/internal/domain"
	adminrepo "thriftshop/internal/repository/admin"
)

var (
	ErrBadEmail = fmt.Errorf("invalid email address")

	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// EmailLister exposes the customer emails known from order history.
type EmailLister interface {
	CustomerEmails(ctx context.Context) ([]string, error)
}

type Service struct {
	repo   adminrepo.Repository
	orders EmailLister
}

func New(repo adminrepo.Repository, orders EmailLister) *Service {
	return &Service{repo: repo, orders: orders}
}

func (s *Service) List(ctx context.Context) ([]domain.Admin, error) {
	return s.repo.List(ctx)
}

// Add grants admin rights to an email. The target does not need an account
// yet; the row is claimed on their first sign-in.
func (s *Service) Add(ctx context.Context, email string) (*domain.Admin, error) {
	norm := strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(norm) {
		return nil, fmt.Errorf("%q: %w", email, ErrBadEmail)
	}
	return s.repo.Add(ctx, norm)
}

func (s *Service) Remove(ctx context.Context, userID string) error {
	return s.repo.Remove(ctx, userID)
}

// Users lists every known storefront user: admins plus everyone who has
// placed an order, deduplicated by email.
func (s *Service) Users(ctx context.Context) ([]domain.User, error) {
	admins, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	byEmail := make(map[string]domain.User)
	for _, a := range admins {
		byEmail[a.Email] = domain.User{ID: a.UserID, Email: a.Email, CreatedAt: a.CreatedAt}
	}
	if s.orders != nil {
		emails, err := s.orders.CustomerEmails(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range emails {
			if _, ok := byEmail[e]; !ok {
				byEmail[e] = domain.User{Email: e}
			}
		}
	}
	users := make([]domain.User, 0, len(byEmail))
	for _, u := range byEmail {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}
