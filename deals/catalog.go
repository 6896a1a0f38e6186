package deals

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TechTeamScibotix/iqautodeals-website-sub003/models"
)

// Vehicle 是核心從車輛目錄讀取的窄化讀取模型
// 庫存同步、AI描述等目錄端功能屬於外部系統，核心只依賴這幾個欄位
type Vehicle struct {
	ID        uuid.UUID
	DealerID  uuid.UUID
	ListPrice float64
	Year      int
	Make      string
	Model     string
	VIN       string
}

// IVehicleCatalog 定義了車輛目錄的讀取介面
type IVehicleCatalog interface {
	// GetVehicle 取得單一車輛，不存在時回傳ErrNotFound
	GetVehicle(ctx context.Context, id uuid.UUID) (Vehicle, error)
	// GetVehicles 批次取得車輛，任一不存在時回傳ErrNotFound
	GetVehicles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Vehicle, error)
}

// gormCatalog 以同一個資料庫的cars資料表實作車輛目錄
type gormCatalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) IVehicleCatalog {
	return &gormCatalog{db: db}
}

func (c *gormCatalog) GetVehicle(ctx context.Context, id uuid.UUID) (Vehicle, error) {
	const op = "Catalog.GetVehicle"
	car := models.Car{ID: id}
	if result := c.db.WithContext(ctx).First(&car); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Vehicle{}, fmt.Errorf("vehicle %s: %w", id, ErrNotFound)
		}
		return Vehicle{}, fmt.Errorf("[%s] Fail to find vehicle, err=%w", op, result.Error)
	}
	return vehicleFromCar(car), nil
}

func (c *gormCatalog) GetVehicles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Vehicle, error) {
	const op = "Catalog.GetVehicles"
	var cars []models.Car
	if result := c.db.WithContext(ctx).Where("id IN ?", ids).Find(&cars); result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to find vehicles, err=%w", op, result.Error)
	}
	vehicles := make(map[uuid.UUID]Vehicle, len(cars))
	for _, car := range cars {
		vehicles[car.ID] = vehicleFromCar(car)
	}
	for _, id := range ids {
		if _, ok := vehicles[id]; !ok {
			return nil, fmt.Errorf("vehicle %s: %w", id, ErrNotFound)
		}
	}
	return vehicles, nil
}

func vehicleFromCar(car models.Car) Vehicle {
	return Vehicle{
		ID:        car.ID,
		DealerID:  car.DealerID,
		ListPrice: car.SalePrice,
		Year:      car.Year,
		Make:      car.Make,
		Model:     car.CarModel,
		VIN:       car.VIN,
	}
}
