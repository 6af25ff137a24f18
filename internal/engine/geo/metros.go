package geo

import "github.com/rendis/storetap/internal/model"

// USMetros are population centres used to densify the initial frontier where
// store networks are thickest.
var USMetros = []model.GeoPoint{
	{Lat: 40.7128, Lng: -74.0060},  // New York
	{Lat: 34.0522, Lng: -118.2437}, // Los Angeles
	{Lat: 41.8781, Lng: -87.6298},  // Chicago
	{Lat: 29.7604, Lng: -95.3698},  // Houston
	{Lat: 33.4484, Lng: -112.0740}, // Phoenix
	{Lat: 39.9526, Lng: -75.1652},  // Philadelphia
	{Lat: 29.4241, Lng: -98.4936},  // San Antonio
	{Lat: 32.7157, Lng: -117.1611}, // San Diego
	{Lat: 32.7767, Lng: -96.7970},  // Dallas
	{Lat: 37.3382, Lng: -121.8863}, // San Jose
	{Lat: 30.2672, Lng: -97.7431},  // Austin
	{Lat: 30.3322, Lng: -81.6557},  // Jacksonville
	{Lat: 37.7749, Lng: -122.4194}, // San Francisco
	{Lat: 39.9612, Lng: -82.9988},  // Columbus
	{Lat: 35.2271, Lng: -80.8431},  // Charlotte
	{Lat: 39.7684, Lng: -86.1581},  // Indianapolis
	{Lat: 47.6062, Lng: -122.3321}, // Seattle
	{Lat: 39.7392, Lng: -104.9903}, // Denver
	{Lat: 38.9072, Lng: -77.0369},  // Washington
	{Lat: 42.3601, Lng: -71.0589},  // Boston
	{Lat: 36.1627, Lng: -86.7816},  // Nashville
	{Lat: 35.4676, Lng: -97.5164},  // Oklahoma City
	{Lat: 36.1699, Lng: -115.1398}, // Las Vegas
	{Lat: 45.5152, Lng: -122.6784}, // Portland
	{Lat: 42.3314, Lng: -83.0458},  // Detroit
	{Lat: 35.1495, Lng: -90.0490},  // Memphis
	{Lat: 38.2527, Lng: -85.7585},  // Louisville
	{Lat: 43.0389, Lng: -87.9065},  // Milwaukee
	{Lat: 35.0844, Lng: -106.6504}, // Albuquerque
	{Lat: 32.2226, Lng: -110.9747}, // Tucson
	{Lat: 38.5816, Lng: -121.4944}, // Sacramento
	{Lat: 39.0997, Lng: -94.5786},  // Kansas City
	{Lat: 33.7490, Lng: -84.3880},  // Atlanta
	{Lat: 25.7617, Lng: -80.1918},  // Miami
	{Lat: 44.9778, Lng: -93.2650},  // Minneapolis
	{Lat: 29.9511, Lng: -90.0715},  // New Orleans
	{Lat: 41.4993, Lng: -81.6944},  // Cleveland
	{Lat: 27.9506, Lng: -82.4572},  // Tampa
	{Lat: 40.4406, Lng: -79.9959},  // Pittsburgh
	{Lat: 38.6270, Lng: -90.1994},  // St. Louis
	{Lat: 39.1031, Lng: -84.5120},  // Cincinnati
	{Lat: 40.7608, Lng: -111.8910}, // Salt Lake City
	{Lat: 28.5383, Lng: -81.3792},  // Orlando
	{Lat: 35.7796, Lng: -78.6382},  // Raleigh
}
