package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"epistats/internal/country"
	dErrors "epistats/pkg/domain-errors"
	"epistats/pkg/requestcontext"
)

type StatsServiceSuite struct {
	suite.Suite
	countries *country.Service
	store     *InMemoryStore
	service   *Service
	today     time.Time
	ctx       context.Context
}

func TestStatsServiceSuite(t *testing.T) {
	suite.Run(t, new(StatsServiceSuite))
}

func (s *StatsServiceSuite) SetupTest() {
	registry := country.NewInMemoryStore()
	s.countries = country.NewService(registry)
	s.store = NewInMemoryStore()
	// Metrics methods are nil-safe; registration happens once in main.
	s.service = NewService(s.countries, s.store, nil)

	for _, name := range []string{"Italy", "France"} {
		_, err := registry.Add(context.Background(), name)
		s.Require().NoError(err)
	}

	// Pin "today" so future-date checks are deterministic.
	s.today = time.Date(2021, 4, 10, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.today)
}

func date(s string) time.Time {
	d, err := time.Parse(DateFormat, s)
	if err != nil {
		panic(err)
	}
	return d
}

func (s *StatsServiceSuite) TestInsert() {
	counts := Counts{TotalCases: 100, TotalDeaths: 5, TotalRecoveries: 20, ActiveCases: 75}

	s.Run("insert then get returns the row", func() {
		stat, err := s.service.Insert(s.ctx, "Italy", date("2021-04-01"), counts)
		s.NoError(err)
		s.Equal(counts, stat.Counts)

		rows, err := s.service.Get(s.ctx, "Italy")
		s.NoError(err)
		s.Len(rows, 1)
		s.Equal(counts, rows[0].Counts)
		s.Equal(date("2021-04-01"), rows[0].Date)
	})

	s.Run("duplicate insert conflicts and leaves counts unchanged", func() {
		_, err := s.service.Insert(s.ctx, "Italy", date("2021-04-01"), Counts{TotalCases: 999})
		s.Error(err)
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))

		stat, err := s.service.GetByDate(s.ctx, "Italy", date("2021-04-01"))
		s.NoError(err)
		s.Equal(counts, stat.Counts)
	})

	s.Run("unknown country is not found", func() {
		_, err := s.service.Insert(s.ctx, "Atlantis", date("2021-04-01"), counts)
		s.Error(err)
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})

	s.Run("future date is rejected", func() {
		_, err := s.service.Insert(s.ctx, "Italy", s.today.AddDate(0, 0, 1), counts)
		s.Error(err)
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
		s.Contains(err.Error(), "future")
	})

	s.Run("today itself is accepted", func() {
		_, err := s.service.Insert(s.ctx, "Italy", s.today, counts)
		s.NoError(err)
	})

	s.Run("negative counts are rejected", func() {
		_, err := s.service.Insert(s.ctx, "Italy", date("2021-04-02"), Counts{TotalDeaths: -1})
		s.Error(err)
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
	})
}

func (s *StatsServiceSuite) TestUpsert() {
	s.Run("upsert creates when absent", func() {
		stat, err := s.service.Upsert(s.ctx, "Italy", date("2021-04-01"), Counts{TotalCases: 10})
		s.NoError(err)
		s.Equal(int64(10), stat.TotalCases)
	})

	s.Run("upsert replaces counts wholesale", func() {
		replacement := Counts{TotalCases: 50, TotalDeaths: 2, TotalRecoveries: 8, ActiveCases: 40}
		_, err := s.service.Upsert(s.ctx, "Italy", date("2021-04-01"), replacement)
		s.NoError(err)

		stat, err := s.service.GetByDate(s.ctx, "Italy", date("2021-04-01"))
		s.NoError(err)
		s.Equal(replacement, stat.Counts)
	})

	s.Run("repeated identical upserts converge", func() {
		counts := Counts{TotalCases: 7}
		for i := 0; i < 3; i++ {
			_, err := s.service.Upsert(s.ctx, "France", date("2021-04-03"), counts)
			s.NoError(err)
		}
		rows, err := s.service.Get(s.ctx, "France")
		s.NoError(err)
		s.Len(rows, 1)
		s.Equal(counts, rows[0].Counts)
	})

	s.Run("upsert validates like insert", func() {
		_, err := s.service.Upsert(s.ctx, "Italy", s.today.AddDate(0, 0, 2), Counts{})
		s.Error(err)
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
	})
}

func (s *StatsServiceSuite) TestGet() {
	s.Run("country with no rows is not found", func() {
		_, err := s.service.Get(s.ctx, "France")
		s.Error(err)
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
		s.Contains(err.Error(), "no data found")
	})

	s.Run("rows come back date ascending", func() {
		for _, d := range []string{"2021-04-03", "2021-04-01", "2021-04-02"} {
			_, err := s.service.Insert(s.ctx, "Italy", date(d), Counts{TotalCases: 1})
			s.Require().NoError(err)
		}
		rows, err := s.service.Get(s.ctx, "Italy")
		s.NoError(err)
		s.Len(rows, 3)
		s.Equal(date("2021-04-01"), rows[0].Date)
		s.Equal(date("2021-04-02"), rows[1].Date)
		s.Equal(date("2021-04-03"), rows[2].Date)
	})
}

func (s *StatsServiceSuite) TestGetByDate() {
	s.Run("date miss and country miss are distinct", func() {
		_, err := s.service.Insert(s.ctx, "Italy", date("2021-04-01"), Counts{TotalCases: 1})
		s.Require().NoError(err)

		_, err = s.service.GetByDate(s.ctx, "Italy", date("2021-04-02"))
		s.Error(err)
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
		s.Contains(err.Error(), "no data for Italy on 2021-04-02")

		_, err = s.service.GetByDate(s.ctx, "Atlantis", date("2021-04-01"))
		s.Error(err)
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
		s.Contains(err.Error(), "does not exist")
	})

	s.Run("time of day is ignored", func() {
		_, err := s.service.Upsert(s.ctx, "Italy", date("2021-04-05"), Counts{TotalCases: 3})
		s.Require().NoError(err)

		stat, err := s.service.GetByDate(s.ctx, "Italy", date("2021-04-05").Add(15*time.Hour))
		s.NoError(err)
		s.Equal(int64(3), stat.TotalCases)
	})
}

func (s *StatsServiceSuite) TestListDates() {
	s.Run("empty country yields empty slice", func() {
		dates, err := s.service.ListDates(s.ctx, "France")
		s.NoError(err)
		s.NotNil(dates)
		s.Empty(dates)
	})

	s.Run("dates are ascending", func() {
		for _, d := range []string{"2021-04-02", "2021-04-01"} {
			_, err := s.service.Insert(s.ctx, "Italy", date(d), Counts{})
			s.Require().NoError(err)
		}
		dates, err := s.service.ListDates(s.ctx, "Italy")
		s.NoError(err)
		s.Equal([]time.Time{date("2021-04-01"), date("2021-04-02")}, dates)
	})
}

func (s *StatsServiceSuite) TestDelete() {
	s.Run("delete removes exactly one row", func() {
		_, err := s.service.Insert(s.ctx, "Italy", date("2021-04-01"), Counts{TotalCases: 1})
		s.Require().NoError(err)
		_, err = s.service.Insert(s.ctx, "Italy", date("2021-04-02"), Counts{TotalCases: 2})
		s.Require().NoError(err)

		s.NoError(s.service.Delete(s.ctx, "Italy", date("2021-04-01")))

		rows, err := s.service.Get(s.ctx, "Italy")
		s.NoError(err)
		s.Len(rows, 1)
		s.Equal(date("2021-04-02"), rows[0].Date)
	})

	s.Run("deleting an absent row is not found", func() {
		err := s.service.Delete(s.ctx, "Italy", date("2020-01-01"))
		s.Error(err)
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})

	s.Run("second delete of the same row is not found", func() {
		_, err := s.service.Insert(s.ctx, "France", date("2021-04-01"), Counts{})
		s.Require().NoError(err)
		s.NoError(s.service.Delete(s.ctx, "France", date("2021-04-01")))
		err = s.service.Delete(s.ctx, "France", date("2021-04-01"))
		s.Error(err)
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})
}

// TestLifecycleScenario walks one country through the full insert, upsert,
// lookup, delete cycle.
func (s *StatsServiceSuite) TestLifecycleScenario() {
	day := date("2021-04-01")

	_, err := s.service.Insert(s.ctx, "Italy", day, Counts{TotalCases: 100, TotalDeaths: 5, TotalRecoveries: 20, ActiveCases: 75})
	s.Require().NoError(err)

	_, err = s.service.Insert(s.ctx, "Italy", day, Counts{TotalCases: 101})
	s.Require().Error(err)
	s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))

	_, err = s.service.Upsert(s.ctx, "Italy", day, Counts{TotalCases: 110, TotalDeaths: 6, TotalRecoveries: 25, ActiveCases: 79})
	s.Require().NoError(err)

	stat, err := s.service.GetByDate(s.ctx, "Italy", day)
	s.Require().NoError(err)
	s.Equal(int64(110), stat.TotalCases)
	s.Equal(int64(79), stat.ActiveCases)

	s.Require().NoError(s.service.Delete(s.ctx, "Italy", day))

	_, err = s.service.GetByDate(s.ctx, "Italy", day)
	s.Error(err)
	s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
}
