package catalog

import "context"

// StaticSource serves the bundled storefront catalog, matched by id or slug.
type StaticSource struct {
	products []Product
}

func NewStaticSource(products []Product) *StaticSource {
	return &StaticSource{products: products}
}

// NewSeedSource returns the bundled MIZORA catalog.
func NewSeedSource() *StaticSource {
	return NewStaticSource(seedProducts())
}

func (s *StaticSource) Name() string { return "static" }

func (s *StaticSource) FindProduct(_ context.Context, ref string) (*Product, error) {
	for i := range s.products {
		if s.products[i].ID == ref || s.products[i].Slug == ref {
			p := s.products[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (s *StaticSource) FindBySlug(_ context.Context, slug string) (*Product, error) {
	for i := range s.products {
		if s.products[i].Slug == slug {
			p := s.products[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (s *StaticSource) ListProducts(_ context.Context) ([]Product, error) {
	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

func seedProducts() []Product {
	products := []Product{
		{ID: "1", Slug: "ceremonial-grade-matcha", Name: "Ceremonial Grade Matcha", Subtitle: "Premium • Uji Origin • 最高の品質",
			Price: 499, Weight: "30g", Grade: "Ceremonial", Origin: "Uji, Kyoto, Japan",
			Images: []string{"/images/ceremonial_tin_new.jpg", "/images/ceremonial_powder_new.jpg", "/images/ceremonial_whisking_new.jpg", "/images/ceremonial_lifestyle_new.jpg"}},
		{ID: "2", Slug: "premium-latte-blend", Name: "Premium Latte Blend", Subtitle: "Daily Ritual • Smooth • カフェラテ",
			Price: 699, Weight: "100g", Grade: "Premium", Origin: "Uji, Kyoto, Japan",
			Images: []string{"/images/latte_pouch_new.png", "/images/latte_texture_new.jpg", "/images/latte_frothing_new.jpg", "/images/latte_lifestyle_new.jpg"}},
		{ID: "3", Slug: "iced-matcha-starter-kit", Name: "Iced Matcha Starter Kit", Subtitle: "All-in-One • Essentials • 初心者セット",
			Price: 699, Weight: "Kit Box", Grade: "Premium + Accessories", Origin: "Japan / Crafted Globally",
			Images: []string{"/images/kit_flatlay_new.jpg", "/images/kit_detail_whisk_new.jpg", "/images/kit_packaging_box_new.jpg", "/images/kit_main.png"}},
		{ID: "4", Slug: "culinary-grade-matcha", Name: "Culinary Grade Matcha", Subtitle: "Baking • Cooking • 料理用",
			Price: 499, Weight: "200g", Grade: "Culinary", Origin: "Shizuoka, Japan",
			Images: []string{"/images/culinary_pouch_main.jpg", "/images/culinary_powder_texture.jpg", "/images/culinary_action_sifting.jpg", "/images/culinary_lifestyle_latte.jpg"}},
		{ID: "5", Slug: "bamboo-whisk", Name: "Bamboo Whisk (Chasen)", Subtitle: "Handcrafted • Traditional • 茶筅",
			Price: 199, Weight: "N/A", Grade: "Accessory", Origin: "Japan",
			Images: []string{"/images/acc_whisk_main.png", "/images/kit_whisk.png", "/images/acc_whisk_lifestyle.jpg", "/images/acc_whisk_detail_new.jpg"}},
		{ID: "6", Slug: "matcha-bowl", Name: "Matcha Bowl (Chawan)", Subtitle: "Ceramic • Wide-bottom • 茶碗",
			Price: 499, Weight: "300g", Grade: "Accessory", Origin: "Japan",
			Images: []string{"/images/acc_bowl_zen.jpg", "/images/acc_bowl_texture.jpg", "/images/acc_bowl_context.jpg", "/images/acc_bowl_lifestyle.jpg"}},
		{ID: "7", Slug: "tea-pot", Name: "Kyusu Tea Pot", Subtitle: "Stoneware • Brewing • 急須",
			Price: 599, Weight: "400g", Grade: "Accessory", Origin: "Japan",
			Images: []string{"/images/acc_teapot_main.png", "/images/acc_teapot_texture.jpg", "/images/acc_teapot_action.jpg", "/images/acc_teapot_lifestyle.jpg"}},
		{ID: "8", Slug: "ceramic-whisk-holder", Name: "Ceramic Whisk Holder (Kusenaoshi)", Subtitle: "Shape Protection • Porcelain • 抹茶立て",
			Price: 299, Weight: "150g", Grade: "Accessory", Origin: "Japan",
			Images: []string{"/images/3rd.jpeg", "/images/1st.jpeg", "/images/2nd.png"}},
		{ID: "9", Slug: "stainless-steel-sifter", Name: "Matcha Sifter (Furui)", Subtitle: "Fine Mesh • Stainless Steel • 篩",
			Price: 199, Weight: "80g", Grade: "Accessory", Origin: "Japan",
			Images: []string{"/images/sifft_texture_new.jpg", "/images/sifft_action_new.jpg"}},
		{ID: "10", Slug: "hojicha-powder", Name: "Roasted Green Tea (Hojicha)", Subtitle: "Roasted • Low Caffeine • ほうじ茶",
			Price: 599, Weight: "100g", Grade: "Premium", Origin: "Kyoto, Japan",
			Images: []string{"/images/culinary_powder_texture.jpg", "/images/latte_pouch_new.png"}},
		{ID: "11", Slug: "matcha-latte-mix", Name: "Matcha Latte Mix", Subtitle: "Sweetened • Monk Fruit • ラテ素",
			Price: 749, Weight: "250g", Grade: "Premium", Origin: "Uji, Kyoto, Japan",
			Images: []string{"/images/essential_latte.png", "/images/latte_frothing_new.jpg", "/images/latte_lifestyle_new.jpg"}},
		{ID: "12", Slug: "matcha-cake-powder", Name: "Matcha Cake Powder", Subtitle: "Baking • Vibrant Color • 製菓用",
			Price: 599, Weight: "100g", Grade: "Culinary", Origin: "Shizuoka, Japan",
			Images: []string{"/images/essential_cake.png", "/images/culinary_action_sifting.jpg", "/images/culinary_pouch_main.jpg"}},
	}
	for i := range products {
		products[i].Stock = DefaultStock
	}
	return products
}
