package store

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"coverdesk/internal/contracts/metrics"
	"coverdesk/internal/contracts/models"
	"coverdesk/internal/docstore"
)

// Prometheus metrics register globally; create them once for the package.
var testMetrics = metrics.New()

type ResolverSuite struct {
	suite.Suite
	db    *docstore.MemoryStore
	store *Store
	ctx   context.Context
}

func (s *ResolverSuite) SetupTest() {
	s.db = docstore.NewMemory()
	s.store = New(s.db, slog.New(slog.DiscardHandler), testMetrics)
	s.ctx = context.Background()
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) seedMember(id, firstName string) {
	s.Require().NoError(s.db.Collection(colMembers).Set(s.ctx, id, models.Member{
		IDNumber:    "ID-" + id,
		FirstName:   firstName,
		LastName:    "Tester",
		DateOfBirth: time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC),
	}))
}

// seedEdge writes one relationship edge; edge ids control query order since
// the join query has no explicit sort.
func (s *ResolverSuite) seedEdge(edgeID, memberID, contractNumber string, role models.Role) {
	s.Require().NoError(s.db.Collection(colRelationships).Set(s.ctx, edgeID, models.Relationship{
		MemberID:       memberID,
		ContractNumber: contractNumber,
		Role:           role,
		CreatedAt:      time.Now().UTC(),
	}))
}

// TestPartitioning verifies members land in the role bucket of their edge.
func (s *ResolverSuite) TestPartitioning() {
	s.seedMember("m1", "Main")
	s.seedMember("m2", "Dep")
	s.seedMember("m3", "Ben")
	s.seedEdge("e1", "m1", "CON001", models.RoleMainMember)
	s.seedEdge("e2", "m2", "CON001", models.RoleDependent)
	s.seedEdge("e3", "m3", "CON001", models.RoleBeneficiary)

	members, err := s.store.ResolveMembers(s.ctx, "CON001")
	s.Require().NoError(err)

	s.Require().NotNil(members.Main)
	s.Equal("m1", members.Main.ID)
	s.Equal(models.RoleMainMember, members.Main.Role)
	s.Require().Len(members.Dependents, 1)
	s.Equal("m2", members.Dependents[0].ID)
	s.Require().Len(members.Beneficiaries, 1)
	s.Equal("m3", members.Beneficiaries[0].ID)
}

// TestRoleExclusivity verifies at most one main member survives resolution,
// keeping the first edge in query order when the data violates the invariant.
func (s *ResolverSuite) TestRoleExclusivity() {
	s.seedMember("m1", "First")
	s.seedMember("m2", "Second")
	s.seedEdge("e1", "m1", "CON002", models.RoleMainMember)
	s.seedEdge("e2", "m2", "CON002", models.RoleMainMember)

	members, err := s.store.ResolveMembers(s.ctx, "CON002")
	s.Require().NoError(err)

	s.Require().NotNil(members.Main)
	s.Equal("m1", members.Main.ID, "first edge in query order wins")
	s.Empty(members.Dependents)
	s.Empty(members.Beneficiaries)
}

// TestSharedMember verifies one member resolved under different roles on
// different contracts, and deduplicated fetches within one contract.
func (s *ResolverSuite) TestSharedMember() {
	s.seedMember("m1", "Shared")
	s.seedEdge("e1", "m1", "CON003", models.RoleDependent)
	s.seedEdge("e2", "m1", "CON004", models.RoleBeneficiary)

	onThree, err := s.store.ResolveMembers(s.ctx, "CON003")
	s.Require().NoError(err)
	s.Require().Len(onThree.Dependents, 1)
	s.Equal(models.RoleDependent, onThree.Dependents[0].Role)

	onFour, err := s.store.ResolveMembers(s.ctx, "CON004")
	s.Require().NoError(err)
	s.Require().Len(onFour.Beneficiaries, 1)
	s.Equal(models.RoleBeneficiary, onFour.Beneficiaries[0].Role)
}

// TestDanglingEdge verifies an edge to a deleted member is skipped, not
// fatal.
func (s *ResolverSuite) TestDanglingEdge() {
	s.seedMember("m1", "Alive")
	s.seedEdge("e1", "m1", "CON005", models.RoleMainMember)
	s.seedEdge("e2", "gone", "CON005", models.RoleDependent)

	members, err := s.store.ResolveMembers(s.ctx, "CON005")
	s.Require().NoError(err)
	s.Require().NotNil(members.Main)
	s.Empty(members.Dependents)
}

// TestMemberSatellites verifies contact and address enrichment.
func (s *ResolverSuite) TestMemberSatellites() {
	s.seedMember("m1", "Rich")
	s.Require().NoError(s.db.Collection(colContacts).Set(s.ctx, "m1", models.ContactSet{
		Contacts: []models.ContactDetail{{Type: "email", Value: "rich@example.com"}},
	}))
	s.Require().NoError(s.db.Collection(colAddresses).Set(s.ctx, "m1", models.Address{
		Street: "1 Main Rd", City: "Cape Town", Province: "WC", PostalCode: "8001",
	}))
	s.seedMember("m2", "Bare")

	s.Run("satellites attach when present", func() {
		member, err := s.store.ResolveMember(s.ctx, "m1")
		s.Require().NoError(err)
		s.Require().Len(member.Contacts, 1)
		s.Equal("rich@example.com", member.Contacts[0].Value)
		s.Require().NotNil(member.Address)
		s.Equal("Cape Town", member.Address.City)
	})

	s.Run("absent satellites default, never error", func() {
		member, err := s.store.ResolveMember(s.ctx, "m2")
		s.Require().NoError(err)
		s.Empty(member.Contacts)
		s.Nil(member.Address)
	})

	s.Run("absent root is ErrNotFound", func() {
		_, err := s.store.ResolveMember(s.ctx, "nobody")
		s.Require().ErrorIs(err, docstore.ErrNotFound)
	})
}

// TestEmptyContract verifies a contract with no edges resolves to empty
// partitions.
func (s *ResolverSuite) TestEmptyContract() {
	members, err := s.store.ResolveMembers(s.ctx, "CON999")
	s.Require().NoError(err)
	s.Nil(members.Main)
	s.NotNil(members.Dependents)
	s.Empty(members.Dependents)
	s.NotNil(members.Beneficiaries)
	s.Empty(members.Beneficiaries)
}
