package testing

import (
	"time"

	"github.com/autora/contract-service/models"
)

func MockContractRequest() *models.ContractRequest {
	return &models.ContractRequest{
		PurchaseRequestID: "PR-2024-001",
		DealID:            "DEAL-2024-001",
		DealData: &models.DealData{
			DealID: "DEAL-2024-001",
			Customer: models.JSON{
				"customerName":    "Jordan Weiss",
				"customerCompany": "Weiss Logistics GmbH",
				"customerType":    "BUSINESS",
				"customerEmail":   "jordan.weiss@example.com",
				"customerPhone":   "+49 151 0000000",
				"customerAddress": "Industriestr. 12, 70565 Stuttgart",
				"customerTaxId":   "DE811223344",
			},
			CustomerFinanceDetails: models.JSON{
				"type":            "LEASING",
				"provider":        "Prime Auto Finance",
				"approvalStatus":  "APPROVED",
				"referenceNumber": "FIN-88421",
				"termsInMonths":   48,
				"interestRate":    3.9,
			},
			RetailerInfo: models.JSON{
				"retailerId":   "RET-004",
				"retailerName": "Hauptstadt Motors",
			},
			MassOrders: models.JSONArray{
				map[string]interface{}{
					"model":    "Sprinter 317 CDI",
					"quantity": 2,
					"color":    "arctic white",
				},
			},
		},
	}
}

func MockContract() *models.Contract {
	req := MockContractRequest()
	return &models.Contract{
		ContractID:        "CONTRACT-AB12CD34",
		PurchaseRequestID: req.PurchaseRequestID,
		DealID:            req.DealID,
		CustomerDetails:   req.DealData.Customer,
		FinanceDetails:    req.DealData.CustomerFinanceDetails,
		MassOrders:        req.DealData.MassOrders,
		CreatedAt:         time.Now(),
	}
}
