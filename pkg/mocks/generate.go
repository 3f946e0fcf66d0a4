// Package mocks holds gomock doubles for the relay service's outbound ports.
//
// Regenerate after changing an interface:
//
//	go generate ./pkg/mocks
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.4.0 -package=mocks -destination=smtp_relay_client_mock.go github.com/navarrastar/application-relay/pkg/clients/smtprelay Client
