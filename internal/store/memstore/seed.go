package memstore

import (
	"context"
	"time"

	"smartgate-service/internal/model"
	"smartgate-service/internal/passes"
	"smartgate-service/internal/store"
)

// Seed loads the demo fixtures used when the service runs against the
// in-memory store: three registered users with vehicles and paid passes, the
// outer/inner gates bound to the athletics deck, and three parking venues.
func Seed(ctx context.Context, st store.Store, passwordHash string) error {
	now := time.Now().UTC()

	users := []model.User{
		{ID: "USR-001", Name: "Amina Chancellor", Email: "amina@smartgate.demo", Phone: "+120255501", Role: model.RoleAdmin, Programme: "Security"},
		{ID: "USR-002", Name: "Kai Mendes", Email: "kai@smartgate.demo", Phone: "+120255502", Role: model.RoleStaff, Programme: "Engineering"},
		{ID: "USR-003", Name: "Lena Ortiz", Email: "lena@smartgate.demo", Phone: "+120255503", Role: model.RoleStudent, Programme: "Business"},
	}
	plates := []string{"SGT230", "CAMP88", "LEARN9"}
	plans := []string{"annual", "long_semester", "short_semester"}
	balances := []float64{120.0, 80.0, 40.0}

	athletics := "VEN-ATH"
	entry := model.DirectionEntry
	exit := model.DirectionExit
	gates := []model.Gate{
		{ID: "GATE-OUTER", Name: "Outer Gate", Slug: "outer", MinRole: model.RoleGuest, Location: "Perimeter", IsActive: true, ParkingVenueID: &athletics, ParkingDirection: &entry},
		{ID: "GATE-INNER", Name: "Inner Gate", Slug: "inner", MinRole: model.RoleStaff, Location: "Campus Core", IsActive: true, ParkingVenueID: &athletics, ParkingDirection: &exit},
	}
	venues := []model.ParkingVenue{
		{ID: "VEN-ATH", Name: "Athletics Deck", Capacity: 240, Occupied: 124},
		{ID: "VEN-ACD", Name: "Academic Core", Capacity: 180, Occupied: 96},
		{ID: "VEN-WLC", Name: "Welcome Center", Capacity: 80, Occupied: 32},
	}

	return st.Transact(ctx, func(tx store.Store) error {
		for idx, user := range users {
			if err := tx.SaveUser(ctx, &user); err != nil {
				return err
			}
			if err := tx.SaveCredential(ctx, user.ID, passwordHash); err != nil {
				return err
			}
			vehicle := model.Vehicle{PlateText: plates[idx], UserID: user.ID}
			if err := tx.SaveVehicle(ctx, &vehicle); err != nil {
				return err
			}
			from, to, plan, err := passes.ValidityWindow(plans[idx], now.AddDate(0, 0, -idx-1))
			if err != nil {
				return err
			}
			paidAt := from
			pass := model.Pass{
				UserID:    user.ID,
				Role:      user.Role,
				PlanType:  plan.PlanType,
				ValidFrom: from,
				ValidTo:   to,
				PriceRM:   plan.PriceRM,
				IsPaid:    true,
				PaidAt:    &paidAt,
			}
			if err := tx.SavePass(ctx, &pass); err != nil {
				return err
			}
			registration := model.ClientRegistration{UserID: user.ID, Status: model.ProfileStatusActive, SubmittedAt: now}
			if err := tx.SaveRegistration(ctx, &registration); err != nil {
				return err
			}
			profile := model.ClientProfile{
				UserID:         user.ID,
				RegistrationID: registration.ID,
				Status:         model.ProfileStatusActive,
				GuestPIN:       "0000",
				WalletBalance:  balances[idx],
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := tx.SaveProfile(ctx, &profile); err != nil {
				return err
			}
			txn := model.WalletTransaction{
				UserID:      user.ID,
				Amount:      balances[idx],
				Type:        model.WalletTxnTopUp,
				Description: "Seed credit",
				Source:      "seed",
				Timestamp:   now,
			}
			if err := tx.AddWalletTransaction(ctx, &txn); err != nil {
				return err
			}
		}
		for _, venue := range venues {
			venue.Clamp()
			if err := tx.SaveParkingVenue(ctx, &venue); err != nil {
				return err
			}
		}
		for _, gate := range gates {
			if err := tx.SaveGate(ctx, &gate); err != nil {
				return err
			}
		}
		return nil
	})
}
