package checklist

// The SASQART schedule. Compiled in at build time and never persisted;
// report rows reference items by ID only.
var schedule = map[SessionType][]Item{
	Daily: {
		{ID: "DL1", Description: "Door interlock", Tolerance: "Functional", Action: "Functional"},
		{ID: "DL2", Description: "Radiation beam status indicators", Tolerance: "Functional", Action: "Functional"},
		{ID: "DL3", Description: "Audio-visual monitor", Tolerance: "Functional", Action: "Functional"},
		{ID: "DL4", Description: "Gantry/collimator motion interlock", Tolerance: "Functional", Action: "Functional"},
		{ID: "DL5", Description: "Couch motion/brakes", Tolerance: "Functional", Action: "Functional"},
		{ID: "DL6", Description: "Radiation area monitors", Tolerance: "Functional", Action: "Functional"},
		{ID: "DL7", Description: "Beam interrupt devices", Tolerance: "Functional", Action: "Functional"},
		{ID: "DL8", Description: "Output constancy – photons", Tolerance: "2.00%", Action: "3.00%"},
		{ID: "DL9", Description: "Output constancy – electrons", Tolerance: "2.00%", Action: "3.00%"},
	},
	Monthly: {
		{ID: "ML1", Description: "Emergency off switches", Tolerance: "Functional", Action: "Functional"},
		{ID: "ML2", Description: "Lasers and crosswires", Tolerance: "1 mm", Action: "2 mm"},
		{ID: "ML3", Description: "Optical distance indicator", Tolerance: "1 mm", Action: "2 mm"},
		{ID: "ML4", Description: "Radiation/light field size", Tolerance: "1 mm", Action: "2 mm"},
		{ID: "ML5", Description: "Physical/dynamic wedge factors", Tolerance: "1%", Action: "2%"},
		{ID: "ML6", Description: "Gantry angle indicators", Tolerance: "0.5°", Action: "1°"},
		{ID: "ML7", Description: "Collimator angle indicators", Tolerance: "0.5°", Action: "1°"},
		{ID: "ML8", Description: "Couch position indicators", Tolerance: "1 mm", Action: "2 mm"},
		{ID: "ML9", Description: "Couch rotation isocentre", Tolerance: "1 mm", Action: "2 mm"},
		{ID: "ML10", Description: "Couch angle indicator", Tolerance: "0.5°", Action: "1°"},
		{ID: "ML11", Description: "Collimator rotation isocentre", Tolerance: "1 mm", Action: "2 mm"},
		{ID: "ML12", Description: "Light/radiation field coincidence", Tolerance: "1 mm", Action: "2 mm"},
		{ID: "ML13", Description: "Beam flatness constancy", Tolerance: "1%", Action: "2%"},
		{ID: "ML14", Description: "Beam symmetry constancy", Tolerance: "1%", Action: "2%"},
		{ID: "ML15", Description: "Relative dosimetry constancy", Tolerance: "1%", Action: "2%"},
		{ID: "ML16", Description: "Accuracy of QA records", Tolerance: "Complete", Action: "Complete"},
	},
	Quarterly: {
		{ID: "Q1", Description: "Central axis depth dose reproducibility", Tolerance: "1%/2mm", Action: "2%/3mm"},
	},
	Annual: {
		{ID: "AL1", Description: "Accessory mechanical integrity", Tolerance: "Safe", Action: "Safe"},
		{ID: "AL2", Description: "Accessory interlocks", Tolerance: "Functional", Action: "Functional"},
		{ID: "AL3", Description: "ODI at extended distances", Tolerance: "1 mm", Action: "2 mm"},
		{ID: "AL4", Description: "Light/rad coincidence vs gantry", Tolerance: "1 mm", Action: "2 mm"},
		{ID: "AL5", Description: "Field size vs gantry angle", Tolerance: "1 mm", Action: "2 mm"},
		{ID: "AL6", Description: "TRS-398 calibration", Tolerance: "1%", Action: "2%"},
		{ID: "AL7", Description: "Output factors", Tolerance: "1%", Action: "2%"},
		{ID: "AL8", Description: "Wedge transmission and profiles", Tolerance: "1%", Action: "2%"},
		{ID: "AL9", Description: "Accessory transmission factors", Tolerance: "1%", Action: "2%"},
		{ID: "AL10", Description: "Output vs gantry angle", Tolerance: "1%", Action: "2%"},
		{ID: "AL11", Description: "Symmetry vs gantry angle", Tolerance: "1%", Action: "2%"},
		{ID: "AL12", Description: "Monitor unit linearity", Tolerance: "1%", Action: "2%"},
		{ID: "AL13", Description: "Monitor unit end effect", Tolerance: "< 1 MU", Action: "< 2 MU"},
		{ID: "AL14", Description: "Collimator rotation isocentre", Tolerance: "1 mm", Action: "2 mm"},
		{ID: "AL15", Description: "Gantry rotation isocentre", Tolerance: "1 mm", Action: "2 mm"},
		{ID: "AL16", Description: "Couch rotation isocentre", Tolerance: "1 mm", Action: "2 mm"},
		{ID: "AL17", Description: "Coincidence of axes", Tolerance: "1 mm", Action: "2 mm"},
		{ID: "AL18", Description: "Independent review", Tolerance: "Complete", Action: "Complete"},
	},
}
