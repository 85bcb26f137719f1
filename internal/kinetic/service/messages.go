package service

import (
	"fmt"

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/types"
)

// Audit message formats. Authors of viewed reports appear only through
// their contributor label.

func loginMessage(clinic string) string {
	return "Successful login: " + clinic
}

func optMessage(clinic string, optedIn bool) string {
	status := "OPTED OUT"
	if optedIn {
		status = "OPTED IN"
	}
	return fmt.Sprintf("%s switched status to %s", clinic, status)
}

func shareMessage(clinic string, tier types.Tier, patient string) string {
	return fmt.Sprintf("%s shared a %s report for %s", clinic, tier, patient)
}

func blockedMessage(clinic string, tier types.Tier, patient, reason string) string {
	return fmt.Sprintf("%s saved %s report for %s. Network share blocked: %s", clinic, tier, patient, reason)
}

func viewMessage(viewer string, tier types.Tier, patient, contributor string) string {
	return fmt.Sprintf("%s viewed %s report for %s from %s", viewer, tier, patient, contributor)
}

func transferMessage(viewer string, amount int, contributor string) string {
	return fmt.Sprintf("TRANSFER: -%d from %s → +%d to %s", amount, viewer, amount, contributor)
}
