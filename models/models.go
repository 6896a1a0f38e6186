package models

// All 回傳所有需要migrate的entity，給AutoMigrate和測試環境使用
func All() []any {
	return []any{
		&User{},
		&Car{},
		&DealList{},
		&SelectedCar{},
		&Negotiation{},
		&AcceptedDeal{},
		&TestDrive{},
		&AvailabilityRequest{},
	}
}
