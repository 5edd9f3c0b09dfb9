// Package seed loads demo fixture data into the stores. It backs the
// --demo flag so the portal comes up with a working individual account
// and a small organization without any identity provider configured.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/neyraq/portal/internal/models"
	"github.com/neyraq/portal/internal/store"
)

type tenantFixture struct {
	ID          string   `yaml:"id"`
	Type        string   `yaml:"type"`
	DisplayName string   `yaml:"displayName"`
	Regions     []string `yaml:"regions"`
}

type principalFixture struct {
	ID          string `yaml:"id"`
	TenantID    string `yaml:"tenantId"`
	PersonaRole string `yaml:"personaRole"`
	DisplayName string `yaml:"displayName"`
	Email       string `yaml:"email"`
	Plan        string `yaml:"plan"`
	TokensUsed  int64  `yaml:"tokensUsed"`
	TokensQuota int64  `yaml:"tokensQuota"`
}

type agentFixture struct {
	ID           string   `yaml:"id"`
	TenantID     string   `yaml:"tenantId"`
	OwnerUserID  string   `yaml:"ownerUserId"`
	DeviceName   string   `yaml:"deviceName"`
	OSVersion    string   `yaml:"osVersion"`
	AgentVersion string   `yaml:"agentVersion"`
	Status       string   `yaml:"status"`
	Tags         []string `yaml:"tags"`
}

type ticketFixture struct {
	ID              string `yaml:"id"`
	TenantID        string `yaml:"tenantId"`
	Title           string `yaml:"title"`
	Description     string `yaml:"description"`
	Status          string `yaml:"status"`
	Priority        string `yaml:"priority"`
	RequesterUserID string `yaml:"requesterUserId"`
}

type catalogItemFixture struct {
	ID               string `yaml:"id"`
	TenantID         string `yaml:"tenantId"`
	Type             string `yaml:"type"`
	Title            string `yaml:"title"`
	Description      string `yaml:"description"`
	Category         string `yaml:"category"`
	RequiresApproval bool   `yaml:"requiresApproval"`
}

type packageFixture struct {
	ID       string `yaml:"id"`
	TenantID string `yaml:"tenantId"`
	Name     string `yaml:"name"`
	Version  string `yaml:"version"`
	Type     string `yaml:"type"`
}

// Fixtures is the parsed form of a seed document.
type Fixtures struct {
	Tenants      []tenantFixture      `yaml:"tenants"`
	Principals   []principalFixture   `yaml:"principals"`
	Agents       []agentFixture       `yaml:"agents"`
	Tickets      []ticketFixture      `yaml:"tickets"`
	CatalogItems []catalogItemFixture `yaml:"catalogItems"`
	Packages     []packageFixture     `yaml:"packages"`
}

// Parse decodes a YAML seed document.
func Parse(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed fixtures: %w", err)
	}
	return &f, nil
}

// Demo returns the embedded demo fixtures.
func Demo() (*Fixtures, error) {
	return Parse(demoFixtures)
}

// Apply writes the fixtures into the stores. Rows that already exist are
// skipped, so Apply is safe to run on every startup.
func (f *Fixtures) Apply(ctx context.Context, stores store.Stores) error {
	now := time.Now()

	tenantTypes := make(map[uuid.UUID]models.TenantType, len(f.Tenants))

	for _, t := range f.Tenants {
		tenantID, err := uuid.Parse(t.ID)
		if err != nil {
			return fmt.Errorf("tenant %q: invalid id: %w", t.DisplayName, err)
		}
		tenantTypes[tenantID] = models.TenantType(t.Type)

		err = stores.Tenants.Create(ctx, &models.Tenant{
			TenantID:    tenantID,
			Type:        models.TenantType(t.Type),
			DisplayName: t.DisplayName,
			Regions:     t.Regions,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil && !errors.Is(err, store.ErrTenantAlreadyExists) {
			return fmt.Errorf("failed to seed tenant %q: %w", t.DisplayName, err)
		}
	}

	for _, p := range f.Principals {
		principalID, err := uuid.Parse(p.ID)
		if err != nil {
			return fmt.Errorf("principal %q: invalid id: %w", p.Email, err)
		}
		tenantID, err := uuid.Parse(p.TenantID)
		if err != nil {
			return fmt.Errorf("principal %q: invalid tenant id: %w", p.Email, err)
		}

		plan := models.Plan(p.Plan)
		if plan == "" {
			plan = models.PlanFree
		}

		principal := &models.Principal{
			PrincipalID:      principalID,
			TenantID:         tenantID,
			TenantType:       tenantTypes[tenantID],
			PersonaRole:      models.PersonaRole(p.PersonaRole),
			DisplayName:      p.DisplayName,
			Email:            p.Email,
			Plan:             plan,
			TokensUsedPeriod: p.TokensUsed,
			TokensQuotaPeriod: func() int64 {
				if p.TokensQuota != 0 {
					return p.TokensQuota
				}
				return 1_000_000
			}(),
			ThrottleState: models.ThrottleNormal,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := principal.Validate(); err != nil {
			return fmt.Errorf("seed principal %q is invalid: %w", p.Email, err)
		}

		err = stores.Principals.Create(ctx, principal)
		if err != nil && !errors.Is(err, store.ErrPrincipalAlreadyExists) {
			return fmt.Errorf("failed to seed principal %q: %w", p.Email, err)
		}
	}

	for _, a := range f.Agents {
		agentID, err := uuid.Parse(a.ID)
		if err != nil {
			return fmt.Errorf("agent %q: invalid id: %w", a.DeviceName, err)
		}
		tenantID, err := uuid.Parse(a.TenantID)
		if err != nil {
			return fmt.Errorf("agent %q: invalid tenant id: %w", a.DeviceName, err)
		}
		ownerID, err := uuid.Parse(a.OwnerUserID)
		if err != nil {
			return fmt.Errorf("agent %q: invalid owner id: %w", a.DeviceName, err)
		}

		if _, err := stores.Agents.Get(ctx, agentID); err == nil {
			continue
		}

		lastSeen := now
		err = stores.Agents.Create(ctx, &models.Agent{
			AgentID:      agentID,
			TenantID:     tenantID,
			OwnerUserID:  ownerID,
			DeviceName:   a.DeviceName,
			OSVersion:    a.OSVersion,
			AgentVersion: a.AgentVersion,
			Status:       models.AgentStatus(a.Status),
			LastSeenAt:   &lastSeen,
			Tags:         a.Tags,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("failed to seed agent %q: %w", a.DeviceName, err)
		}
	}

	for _, t := range f.Tickets {
		ticketID, err := uuid.Parse(t.ID)
		if err != nil {
			return fmt.Errorf("ticket %q: invalid id: %w", t.Title, err)
		}
		tenantID, err := uuid.Parse(t.TenantID)
		if err != nil {
			return fmt.Errorf("ticket %q: invalid tenant id: %w", t.Title, err)
		}
		requesterID, err := uuid.Parse(t.RequesterUserID)
		if err != nil {
			return fmt.Errorf("ticket %q: invalid requester id: %w", t.Title, err)
		}

		if _, err := stores.Tickets.Get(ctx, ticketID); err == nil {
			continue
		}

		err = stores.Tickets.Create(ctx, &models.Ticket{
			TicketID:        ticketID,
			TenantID:        tenantID,
			Title:           t.Title,
			Description:     t.Description,
			Status:          models.TicketStatus(t.Status),
			Priority:        models.TicketPriority(t.Priority),
			RequesterUserID: requesterID,
			Source:          models.TicketSourcePortal,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		if err != nil {
			return fmt.Errorf("failed to seed ticket %q: %w", t.Title, err)
		}
	}

	for _, c := range f.CatalogItems {
		itemID, err := uuid.Parse(c.ID)
		if err != nil {
			return fmt.Errorf("catalog item %q: invalid id: %w", c.Title, err)
		}
		tenantID, err := uuid.Parse(c.TenantID)
		if err != nil {
			return fmt.Errorf("catalog item %q: invalid tenant id: %w", c.Title, err)
		}

		if _, err := stores.Catalog.GetItem(ctx, itemID); err == nil {
			continue
		}

		err = stores.Catalog.CreateItem(ctx, &models.CatalogItem{
			ItemID:           itemID,
			TenantID:         tenantID,
			Type:             models.CatalogItemType(c.Type),
			Title:            c.Title,
			Description:      c.Description,
			Category:         c.Category,
			RequiresApproval: c.RequiresApproval,
			Active:           true,
			CreatedAt:        now,
		})
		if err != nil {
			return fmt.Errorf("failed to seed catalog item %q: %w", c.Title, err)
		}
	}

	for _, p := range f.Packages {
		packageID, err := uuid.Parse(p.ID)
		if err != nil {
			return fmt.Errorf("package %q: invalid id: %w", p.Name, err)
		}
		tenantID, err := uuid.Parse(p.TenantID)
		if err != nil {
			return fmt.Errorf("package %q: invalid tenant id: %w", p.Name, err)
		}

		if _, err := stores.Software.GetPackage(ctx, packageID); err == nil {
			continue
		}

		err = stores.Software.CreatePackage(ctx, &models.Package{
			PackageID:      packageID,
			TenantID:       tenantID,
			Name:           p.Name,
			Version:        p.Version,
			Type:           p.Type,
			RebootBehavior: "never",
			CreatedAt:      now,
		})
		if err != nil {
			return fmt.Errorf("failed to seed package %q: %w", p.Name, err)
		}
	}

	log.Info().
		Int("tenants", len(f.Tenants)).
		Int("principals", len(f.Principals)).
		Int("agents", len(f.Agents)).
		Int("tickets", len(f.Tickets)).
		Msg("Seed fixtures applied")

	return nil
}
