package services

import (
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/google/uuid"
	"github.com/mentorhub/marketplace/models"
)

//go:embed authz_model.conf
var authzModelText string

const (
	ObjectListing       = "listing"
	ObjectCatalogue     = "catalogue"
	ObjectConfig        = "config"
	ObjectAuditLog      = "audit_log"
	ObjectPayoutAccount = "payout_account"
	ObjectEnrollment    = "enrollment"
	ObjectJournal       = "journal"
)

const (
	ActionListingCreate   = "listing.create"
	ActionListingEditOwn  = "listing.edit_own"
	ActionListingModerate = "listing.moderate"

	ActionCatalogueSetAny = "catalogue.set_any"
	ActionCatalogueSetOwn = "catalogue.set_own"

	ActionConfigManage = "config.manage"
	ActionAuditLogView = "audit_log.view"

	ActionPayoutAccountManage = "payout_account.manage"
	ActionEnrollmentCheckout  = "enrollment.checkout"
	ActionJournalWrite        = "journal.write"
)

// Actor is the authenticated caller as resolved from the request token.
type Actor struct {
	UserID uuid.UUID
	Role   string
	// MentorID is set when the actor owns a mentor profile.
	MentorID *uuid.UUID
}

func (a Actor) subject() string {
	return "role:" + a.Role
}

// SystemActor is used for writes that no person initiated, such as webhooks.
var SystemActor = Actor{Role: "system"}

// Policy centralizes every capability check in one casbin enforcer.
type Policy struct {
	enforcer *casbin.SyncedEnforcer
}

func NewPolicy() (*Policy, error) {
	m, err := model.NewModelFromString(authzModelText)
	if err != nil {
		return nil, fmt.Errorf("load authz model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	return &Policy{enforcer: enforcer}, nil
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{"role:mentor", ObjectListing, ActionListingCreate},
		{"role:mentor", ObjectListing, ActionListingEditOwn},
		{"role:mentor", ObjectCatalogue, ActionCatalogueSetOwn},
		{"role:mentor", ObjectPayoutAccount, ActionPayoutAccountManage},
		{"role:mentor", ObjectJournal, ActionJournalWrite},

		{"role:staff", ObjectListing, ActionListingModerate},
		{"role:staff", ObjectCatalogue, ActionCatalogueSetAny},
		{"role:staff", ObjectAuditLog, ActionAuditLogView},

		{"role:admin", ObjectConfig, ActionConfigManage},

		{"role:student", ObjectEnrollment, ActionEnrollmentCheckout},
	}
	for _, p := range policies {
		if _, err := enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
			return fmt.Errorf("seed policy %v: %w", p, err)
		}
	}
	// Admins carry every staff capability.
	if _, err := enforcer.AddGroupingPolicy("role:admin", "role:staff"); err != nil {
		return fmt.Errorf("seed grouping: %w", err)
	}
	return nil
}

// Allowed reports whether the actor's role grants action on object.
func (p *Policy) Allowed(actor Actor, object, action string) bool {
	if actor.Role == "" {
		return false
	}
	ok, err := p.enforcer.Enforce(actor.subject(), object, action)
	return err == nil && ok
}

func (p *Policy) CanModerateListings(actor Actor) bool {
	return p.Allowed(actor, ObjectListing, ActionListingModerate)
}

func (p *Policy) CanCreateListing(actor Actor) bool {
	return p.Allowed(actor, ObjectListing, ActionListingCreate)
}

// CanEditListing allows moderators on any listing and mentors on their own.
func (p *Policy) CanEditListing(actor Actor, listing *models.Project) bool {
	if p.CanModerateListings(actor) {
		return true
	}
	return p.Allowed(actor, ObjectListing, ActionListingEditOwn) && ownsMentor(actor, listing.MentorID)
}

// CanSetCatalogueVisibility covers bulk suppress and restore of one mentor's listings.
func (p *Policy) CanSetCatalogueVisibility(actor Actor, mentorID uuid.UUID) bool {
	if p.Allowed(actor, ObjectCatalogue, ActionCatalogueSetAny) {
		return true
	}
	return p.Allowed(actor, ObjectCatalogue, ActionCatalogueSetOwn) && ownsMentor(actor, mentorID)
}

func (p *Policy) CanManageConfig(actor Actor) bool {
	return p.Allowed(actor, ObjectConfig, ActionConfigManage)
}

func (p *Policy) CanViewAuditLog(actor Actor) bool {
	return p.Allowed(actor, ObjectAuditLog, ActionAuditLogView)
}

func (p *Policy) CanManagePayoutAccount(actor Actor) bool {
	return p.Allowed(actor, ObjectPayoutAccount, ActionPayoutAccountManage)
}

func (p *Policy) CanCheckout(actor Actor) bool {
	return p.Allowed(actor, ObjectEnrollment, ActionEnrollmentCheckout)
}

func (p *Policy) CanWriteJournal(actor Actor) bool {
	return p.Allowed(actor, ObjectJournal, ActionJournalWrite)
}

func ownsMentor(actor Actor, mentorID uuid.UUID) bool {
	return actor.MentorID != nil && *actor.MentorID == mentorID
}
