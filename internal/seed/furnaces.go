package seed

// Furnace is one row of the initial catalog.
type Furnace struct {
	Name     string
	Info     string
	Type     string
	ImageRes string
}

// Furnaces is the initial catalog. Type becomes the category.
var Furnaces = []Furnace{
	{"Доменная печь", "Восстановительная плавка железорудного сырья с коксом для получения чугуна; основа классической связки BF-BOF.", "черная", "img_bf"},
	{"Кислородный конвертер (BOF/LD)", "Передел жидкого чугуна в сталь кислородной продувкой; быстрый массовый процесс.", "черная", "img_bof"},
	{"Электродуговая печь (ДСП/EAF)", "Плавка стального лома или DRI электрической дугой; гибкая и подходящая для декарбонизации.", "черная", "img_eaf"},
	{"Индукционная печь", "Переплав и получение сплавов индукционным нагревом; чистая плавка, чаще для цветных и мелкосерийной стали.", "цветная", "img_if"},
	{"Ковш-печь (LF)", "Доводка состава и температуры стали под шлаком, рафинирование и десульфурация.", "черная", "img_lf"},
	{"Вакуумная дегазация (VD)", "Удаление водорода/азота/кислорода из стали под вакуумом для повышения чистоты.", "черная", "img_vd"},
	{"Вакуум-кислородная рафинация (VOD)", "Деуглероживание нержавеющей стали под вакуумом с подачей O2; очень низкий C.", "черная", "img_vod"},
	{"Вращающаяся печь RKEF (латериты)", "Сушка/кальцинация/частичное восстановление никелевых латеритов перед SAF в схеме RKEF.", "цветная", "img_rkef_kiln"},
	{"Подводно-дуговая электропечь (SAF)", "Глубокое восстановление под шлаком для ферросплавов, меди/никеля и др.; высокая мощность.", "черная", "img_saf"},
	{"Флэш-плавка", "Плавка сульфидных концентратов Cu/Ni в пылевом потоке с кислородом; энергоэффективна, SO₂ утилизируется.", "цветная", "img_flash"},
	{"Печь с погружной фурмой (TSL)", "Интенсивная плавка концентратов и пылей с кислородом (Ausmelt/Isasmelt); гибкий режим.", "цветная", "img_tsl"},
	{"Конвертер Пирса–Смита", "Конвертирование медного/никелевого штейна в блистер под боковой продувкой.", "цветная", "img_pierce_smith"},
	{"Анодная печь", "Рафинирование блистерной меди до анодной перед электролизом; режимы окисление/полировка.", "цветная", "img_anode_furnace"},
	{"Ваэльц-печь", "Возврат цинка/свинца из металлургических пылей во вращающейся печи при восстановлении.", "цветная", "img_waelz"},
	{"КИВЦЭТ", "Комбинированный обжиг и плавка свинцовых/цинковых концентратов с кислородом; замкнутая газоочистка.", "цветная", "img_kivcet"},
	{"Печь Imperial Smelting (ISF)", "Совместная восстановительная плавка Pb+Zn с последующей конденсацией паров цинка.", "цветная", "img_isf"},
	{"Кальцинатор в кипящем слое", "Кальцинация гидроксида алюминия до глинозёма в (циркулирующем) кипящем слое; высокий КПД.", "цветная", "img_fb_calciner"},
	{"Вращающаяся печь (кальцинация)", "Обжиг/кальцинация Al(OH)₃ или известняка в барабанной печи; универсальна, но менее экономична vs FBC.", "цветная", "img_rotary_kiln"},
	{"Отражательная печь", "Газопламенная ванновая плавка (исторически для меди/лома); сегодня вытеснена более эффективными схемами.", "цветная", "img_reverb"},
	{"TBRC/Kaldo", "Кислородно-конвертерная вращающаяся печь для рафинирования штейнов и металлов цветной металлургии.", "цветная", "img_tbrc"},
	{"Шагоходная нагревательная печь", "Нагрев слитков/слябов перед горячей прокаткой; равномерный профиль температуры.", "черная", "img_walking_beam"},
	{"VIM (вакуумно-индукционная плавка)", "Плавка высоколегированных/реактивных сплавов в вакууме с индукционным нагревом.", "черная", "img_vim"},
	{"Электронно-лучевая печь (EB)", "Высокочистая плавка титана/редких металлов электронным лучом в глубоком вакууме.", "цветная", "img_eb"},
	{"Известковая печь", "Обжиг известняка до CaO для флюсования и металлургии; значимые выбросы CO₂.", "черная", "img_lime_kiln"},
}
