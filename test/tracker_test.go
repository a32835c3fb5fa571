//go:build integration

package test

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"
)

func (s *IntegrationTestSuite) TestLoginStoresSession() {
	token := s.login(serverEndpoint)

	fields, err := s.redis.HGetAll(context.Background(), "jogtracker-session||"+token).Result()
	s.Require().NoError(err)
	s.Equal(remoteUserID, fields["user_id"])

	jogsResp := s.listJogs(serverEndpoint, token)
	s.Equal(3, jogsResp.Total)
	s.Equal("ready", jogsResp.State)

	status, _ := s.do(http.MethodGet, serverEndpoint+"/a/logout", token, nil)
	s.Equal(http.StatusOK, status)

	exists, err := s.redis.Exists(context.Background(), "jogtracker-session||"+token).Result()
	s.Require().NoError(err)
	s.Zero(exists)

	status, _ = s.do(http.MethodGet, serverEndpoint+"/jogs", token, nil)
	s.Equal(http.StatusUnauthorized, status)
}

func (s *IntegrationTestSuite) TestSessionSharedBetweenInstances() {
	token := s.login(serverEndpoint)

	// the replica never saw this login, it rebuilds the session from redis
	jogsResp := s.listJogs(replicaEndpoint, token)
	s.Equal(3, jogsResp.Total)
}

func (s *IntegrationTestSuite) TestCreateDeleteAndReports() {
	token := s.login(serverEndpoint)

	status, body := s.do(http.MethodPost, serverEndpoint+"/jogs", token, url.Values{
		"date":     {"2024-04-10"},
		"time":     {"25"},
		"distance": {"5"},
	})
	s.Require().Equal(http.StatusCreated, status, string(body))

	jogsResp := s.listJogs(serverEndpoint, token)
	s.Equal(4, jogsResp.Total)

	status, body = s.do(http.MethodGet, serverEndpoint+"/reports?order=desc", token, nil)
	s.Require().Equal(http.StatusOK, status, string(body))

	var reportsResp struct {
		Reports []struct {
			Start         string  `json:"start"`
			TotalDistance float64 `json:"totalDistance"`
		} `json:"reports"`
	}
	s.Require().NoError(json.Unmarshal(body, &reportsResp))
	s.Require().Len(reportsResp.Reports, 2)
	s.Equal("2024-04-08", reportsResp.Reports[0].Start)
	s.Equal(9.0, reportsResp.Reports[0].TotalDistance)
	s.Equal("2024-04-01", reportsResp.Reports[1].Start)
	s.Equal(15.0, reportsResp.Reports[1].TotalDistance)

	newest := jogsResp.Jogs[len(jogsResp.Jogs)-1].ID
	status, body = s.do(http.MethodDelete, serverEndpoint+"/jogs/"+strconv.Itoa(newest), token, nil)
	s.Require().Equal(http.StatusOK, status, string(body))
	s.Equal(3, s.listJogs(serverEndpoint, token).Total)
}
