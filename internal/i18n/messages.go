package i18n

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

// Catalog keys.
const (
	MsgRegionRequired    = "form.region.required"
	MsgCityRequired      = "form.city.required"
	MsgLongitudeRequired = "form.long.required"
	MsgLatitudeRequired  = "form.lat.required"
	MsgStartDateRequired = "form.startDate.required"
	MsgEndDateRequired   = "form.endDate.required"
	MsgLongitudeNumeric  = "form.long.numeric"
	MsgLatitudeNumeric   = "form.lat.numeric"

	MsgFetchFailed = "banner.fetch_failed"

	MsgChartRainLabel = "chart.rain.label"
	MsgChartWindLabel = "chart.wind.label"
	MsgChartYTitle    = "chart.y.title"
	MsgChartXTitle    = "chart.x.title"

	MsgPageTitle      = "page.title"
	MsgPageIntro      = "page.intro"
	MsgPageRegion     = "page.region"
	MsgPageCity       = "page.city"
	MsgPageLongitude  = "page.long"
	MsgPageLatitude   = "page.lat"
	MsgPageStartDate  = "page.startDate"
	MsgPageEndDate    = "page.endDate"
	MsgPageSubmit     = "page.submit"
	MsgPageLoading    = "page.loading"
	MsgPageChartTitle = "page.chart_title"
	MsgPageDismiss    = "page.dismiss"
	MsgPageFooter     = "page.footer"
)

var entries = map[string]map[language.Tag]string{
	MsgRegionRequired: {
		language.French:  "Veuillez sélectionner une Wilaya.",
		language.English: "Please select a wilaya.",
	},
	MsgCityRequired: {
		language.French:  "Veuillez sélectionner une ville.",
		language.English: "Please select a city.",
	},
	MsgLongitudeRequired: {
		language.French:  "La longitude est requise.",
		language.English: "Longitude is required.",
	},
	MsgLatitudeRequired: {
		language.French:  "La latitude est requise.",
		language.English: "Latitude is required.",
	},
	MsgStartDateRequired: {
		language.French:  "La date de début est requise.",
		language.English: "Start date is required.",
	},
	MsgEndDateRequired: {
		language.French:  "La date de fin est requise.",
		language.English: "End date is required.",
	},
	MsgLongitudeNumeric: {
		language.French:  "La longitude doit être un nombre.",
		language.English: "Longitude must be a number.",
	},
	MsgLatitudeNumeric: {
		language.French:  "La latitude doit être un nombre.",
		language.English: "Latitude must be a number.",
	},
	MsgFetchFailed: {
		language.French:  "Impossible de récupérer les données météo. Veuillez réessayer.",
		language.English: "Could not retrieve the weather data. Please try again.",
	},
	MsgChartRainLabel: {
		language.French:  "Somme de pluie",
		language.English: "Rain sum",
	},
	MsgChartWindLabel: {
		language.French:  "Vitesse du vent",
		language.English: "Wind speed",
	},
	MsgChartYTitle: {
		language.French:  "Somme de pluie (mm)",
		language.English: "Rain sum (mm)",
	},
	MsgChartXTitle: {
		language.French:  "Date",
		language.English: "Date",
	},
	MsgPageTitle: {
		language.French:  "Analyse de la quantité de pluie et de la vitesse du vent.",
		language.English: "Rainfall and wind speed analysis.",
	},
	MsgPageIntro: {
		language.French: "Veuillez entrer les informations requises pour générer un graphique " +
			"de la quantité de pluie et de la vitesse du vent.",
		language.English: "Enter the required information to generate a chart of rainfall and wind speed.",
	},
	MsgPageRegion: {
		language.French:  "Sélectionnez la Wilaya",
		language.English: "Select the wilaya",
	},
	MsgPageCity: {
		language.French:  "Sélectionnez la Ville",
		language.English: "Select the city",
	},
	MsgPageLongitude: {
		language.French:  "Longitude",
		language.English: "Longitude",
	},
	MsgPageLatitude: {
		language.French:  "Latitude",
		language.English: "Latitude",
	},
	MsgPageStartDate: {
		language.French:  "Date de début",
		language.English: "Start date",
	},
	MsgPageEndDate: {
		language.French:  "Date de fin",
		language.English: "End date",
	},
	MsgPageSubmit: {
		language.French:  "Aperçu les données",
		language.English: "Preview the data",
	},
	MsgPageLoading: {
		language.French:  "Aperçu les données...",
		language.English: "Loading the data...",
	},
	MsgPageChartTitle: {
		language.French:  "Quantité de pluie et de la vitesse du vent à",
		language.English: "Rainfall and wind speed in",
	},
	MsgPageDismiss: {
		language.French:  "Fermer",
		language.English: "Dismiss",
	},
	MsgPageFooter: {
		language.French:  "Cette application a été développée par",
		language.English: "This application was developed by",
	},
}

// cityDisplayNames holds per-language display names for cities whose dataset
// name differs from local usage.
var cityDisplayNames = map[string]map[string]string{
	"fr": {"Algiers": "Alger"},
}

func buildCatalog() (catalog.Catalog, error) {
	b := catalog.NewBuilder(catalog.Fallback(Supported[0]))
	for key, translations := range entries {
		for tag, msg := range translations {
			if err := b.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("registering message %q for %s: %w", key, tag, err)
			}
		}
	}
	return b, nil
}

// CityName returns the display name of a city in the given language.
func CityName(tag language.Tag, name string) string {
	if names, ok := cityDisplayNames[Base(tag)]; ok {
		if display, ok := names[name]; ok {
			return display
		}
	}
	return name
}
