package whitelist

import (
	"os"
	"reflect"
	"testing"
)

func TestVerifyIP(t *testing.T) {
	m := map[string]bool{
		"127.0.0.1":       true,
		"127.0.0.1:52311": true,
		"127.0.0.2":       false,
		"192.168.1.1":     true,
		"192.168.1.255":   true,
		"192.168.0.1":     false,
		"10.127.0.0.1":    false,
		"[::1]:8080":      true,
	}

	for k, v := range m {
		if VerifyIP(k) != v {
			t.Fatal(k)
		}
	}
}

func TestRegisterIP(t *testing.T) {
	RegisterIP("159.56.25.14")

	if !VerifyIP("159.56.25.14:80") {
		t.Fail()
	}
}

func TestRemoveIP(t *testing.T) {
	RegisterIP("159.56.25.14")

	if !VerifyIP("159.56.25.14") {
		t.Fail()
	}

	RemoveIP("159.56.25.14")
	if VerifyIP("159.56.25.14") {
		t.Fail()
	}
}

func TestIPList(t *testing.T) {
	ClearIPList()
	defer Setup(defaults)

	m := []string{"124.4.59.24", "58.57.1.*"}
	for _, ip := range m {
		RegisterIP(ip)
	}

	if !reflect.DeepEqual(m, IPList()) {
		t.Fatal(IPList())
	}
}

func TestClearIPList(t *testing.T) {
	ClearIPList()
	defer Setup(defaults)

	for _, ip := range []string{"127.0.0.1", "192.168.1.1"} {
		if VerifyIP(ip) {
			t.Fatal(ip)
		}
	}
}

var defaults = []string{"127.0.0.1", "::1", "192.168.1.*"}

func TestMain(m *testing.M) {
	Setup(defaults)

	retCode := m.Run()
	os.Exit(retCode)
}
