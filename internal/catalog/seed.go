package catalog

const (
	CropCotton  = "cotton"
	CropCoconut = "coconut"
)

const defaultEffectiveness = 0.85

func treatment(name, description, rate string) Treatment {
	if rate == "" {
		rate = "See product label"
	}
	return Treatment{
		Name:            name,
		Description:     description,
		ApplicationRate: rate,
		Effectiveness:   defaultEffectiveness,
		EcoFriendly:     IsEcoFriendly(name),
	}
}

// SeedDatasets are the reference sets the service ships with.
func SeedDatasets() []Dataset {
	return []Dataset{
		{Name: "Cotton Disease Reference Set", CropType: CropCotton, Source: "Agricultural Research Institute"},
		{Name: "Coconut Disease Reference Set", CropType: CropCoconut, Source: "Tropical Plant Research Center"},
	}
}

// SeedSignatures returns the built-in reference library. Profiles that are
// not specific to a disease share the crop's generic profile.
func SeedSignatures() []Signature {
	cottonGeneric := ColorProfile{RedMean: 120, GreenMean: 110, BlueMean: 90}
	coconutGeneric := ColorProfile{RedMean: 115, GreenMean: 105, BlueMean: 85}

	return []Signature{
		{
			Label:       "cotton_leaf_spot",
			CropType:    CropCotton,
			Name:        "Cotton Leaf Spot",
			Description: "Fungal infection producing small circular brown to reddish lesions with darker margins that merge and cause early leaf drop.",
			Severity:    "moderate",
			Color:       ColorProfile{RedMean: 130, GreenMean: 90, BlueMean: 85},
			Texture:     TextureDescriptor{Contrast: ContrastHigh, Pattern: PatternSpotted},
			Treatments: []Treatment{
				treatment("Chlorothalonil 75% WP", "Protective broad-spectrum fungicide; apply at first sign of lesions.", "2 g per litre of water"),
				treatment("Mancozeb 75% WP", "Contact fungicide that limits spore germination on leaf surfaces.", "2.5 g per litre of water"),
			},
		},
		{
			Label:       "cotton_boll_rot",
			CropType:    CropCotton,
			Name:        "Cotton Boll Rot",
			Description: "Complex of fungal and bacterial pathogens entering through boll wounds, causing dark water-soaked rot of developing bolls.",
			Severity:    "moderate",
			Color:       ColorProfile{RedMean: 160, GreenMean: 70, BlueMean: 75},
			Texture:     TextureDescriptor{Contrast: ContrastMedium, Pattern: PatternIrregular},
			Treatments: []Treatment{
				treatment("Copper Oxychloride 50% WP", "Copper fungicide-bactericide sprayed on bolls during humid spells.", "3 g per litre of water"),
				treatment("Trichoderma viride", "Biological control agent that suppresses rot fungi on plant debris.", ""),
			},
		},
		{
			Label:       "cotton_bacterial_blight",
			CropType:    CropCotton,
			Name:        "Cotton Bacterial Blight",
			Description: "Angular water-soaked leaf lesions that turn brown and spread along veins, caused by Xanthomonas citri pv. malvacearum.",
			Severity:    "moderate",
			Color:       cottonGeneric,
			Texture:     TextureDescriptor{Contrast: ContrastLow, Pattern: PatternUniform},
			Treatments: []Treatment{
				treatment("Streptocycline", "Antibiotic spray combined with copper to slow bacterial spread.", "0.1 g per litre of water"),
			},
		},
		{
			Label:       "coconut_leaf_spot",
			CropType:    CropCoconut,
			Name:        "Coconut Leaf Spot",
			Description: "Grey leaf blight producing small yellow-brown spots with grey centres on older fronds.",
			Severity:    "moderate",
			Color:       ColorProfile{RedMean: 110, GreenMean: 85, BlueMean: 80},
			Texture:     TextureDescriptor{Contrast: ContrastMedium, Pattern: PatternDotted},
			Treatments: []Treatment{
				treatment("Bordeaux Mixture 1%", "Copper sulphate and lime spray applied to the crown and affected fronds.", "1 kg copper sulphate per 100 litres"),
				treatment("Propiconazole 25% EC", "Systemic triazole fungicide for severe leaf blight.", "1 ml per litre of water"),
			},
		},
		{
			Label:       "coconut_bud_rot",
			CropType:    CropCoconut,
			Name:        "Coconut Bud Rot",
			Description: "Phytophthora infection of the spindle leaf and bud; the youngest leaf wilts and the crown rots with a foul smell.",
			Severity:    "moderate",
			Color:       ColorProfile{RedMean: 140, GreenMean: 90, BlueMean: 85},
			Texture:     TextureDescriptor{Contrast: ContrastHigh, Pattern: PatternDamaged},
			Treatments: []Treatment{
				treatment("Metalaxyl-Mancozeb", "Systemic plus contact fungicide drenched into the crown after removing rotten tissue.", "2 g per litre of water"),
				treatment("Bordeaux Paste 10%", "Protective paste applied to the cleaned bud region.", ""),
			},
		},
		{
			Label:       "coconut_root_wilt",
			CropType:    CropCoconut,
			Name:        "Coconut Root Wilt",
			Description: "Phytoplasma disease causing flaccid, yellowing leaflets and progressive decline in nut yield.",
			Severity:    "moderate",
			Color:       coconutGeneric,
			Texture:     TextureDescriptor{Contrast: ContrastLow, Pattern: PatternUniform},
			Treatments: []Treatment{
				treatment("Neem Cake Soil Application", "Organic amendment that improves root health and suppresses vectors.", "5 kg per palm per year"),
			},
		},
	}
}

// Default returns the in-memory catalog built from the seed data.
func Default() *Memory {
	m, err := NewMemory(SeedSignatures())
	if err != nil {
		panic(err)
	}
	return m
}
