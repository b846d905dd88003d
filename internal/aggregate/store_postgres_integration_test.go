//go:build integration

package aggregate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"epistats/pkg/platform/sentinel"
	"epistats/pkg/testutil/containers"
)

type AggregatePostgresSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
}

func TestAggregatePostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(AggregatePostgresSuite))
}

func (s *AggregatePostgresSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.DB)
}

func (s *AggregatePostgresSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(), "country_aggregates"))
}

func (s *AggregatePostgresSuite) seed(rows ...CountryAggregate) {
	for _, row := range rows {
		s.Require().NoError(s.store.Insert(context.Background(), row))
	}
}

func (s *AggregatePostgresSuite) TestInsertAndFind() {
	ctx := context.Background()
	s.seed(CountryAggregate{CountryName: "Italy", TotalCases: 100, TotalDeaths: 5, TotalRecoveries: 20, ActiveCases: 75})

	got, err := s.store.FindByName(ctx, " ITALY ")
	s.Require().NoError(err)
	s.Equal("Italy", got.CountryName)
	s.Equal(int64(100), got.TotalCases)
}

func (s *AggregatePostgresSuite) TestInsertDuplicateConflicts() {
	ctx := context.Background()
	s.seed(CountryAggregate{CountryName: "Italy"})

	err := s.store.Insert(ctx, CountryAggregate{CountryName: " italy "})
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrConflict))
}

func (s *AggregatePostgresSuite) TestListByNames() {
	ctx := context.Background()
	s.seed(
		CountryAggregate{CountryName: "Italy", TotalCases: 100},
		CountryAggregate{CountryName: "France", TotalCases: 50},
		CountryAggregate{CountryName: "Germany", TotalCases: 75},
	)

	rows, err := s.store.ListByNames(ctx, []string{"  FRANCE ", "italy", "Atlantis"})
	s.Require().NoError(err)
	s.Require().Len(rows, 2, "unmatched names are skipped")
	s.Equal("France", rows[0].CountryName)
	s.Equal("Italy", rows[1].CountryName)
}

func (s *AggregatePostgresSuite) TestUpdate() {
	ctx := context.Background()
	s.seed(CountryAggregate{CountryName: "Italy", TotalCases: 100})

	err := s.store.Update(ctx, CountryAggregate{CountryName: "italy", TotalCases: 150, ActiveCases: 30})
	s.Require().NoError(err)

	got, err := s.store.FindByName(ctx, "Italy")
	s.Require().NoError(err)
	s.Equal(int64(150), got.TotalCases)
	s.Equal(int64(30), got.ActiveCases)

	err = s.store.Update(ctx, CountryAggregate{CountryName: "Atlantis"})
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *AggregatePostgresSuite) TestDeleteByName() {
	ctx := context.Background()
	s.seed(CountryAggregate{CountryName: "Italy"})

	s.Require().NoError(s.store.DeleteByName(ctx, " ITALY "))

	err := s.store.DeleteByName(ctx, "Italy")
	s.True(errors.Is(err, sentinel.ErrNotFound))
}
